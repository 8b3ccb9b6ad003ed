package mutation

import "io"

// progressReader counts bytes as they stream through and reports percent
// complete. Reported values only ever increase; 100 fires exactly once
// when the stream is exhausted.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(percent int)
}

func newProgressReader(r io.Reader, total int64, onProgress func(int)) io.Reader {
	if onProgress == nil {
		return r
	}
	return &progressReader{r: r, total: total, onProgress: onProgress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	switch {
	case err == io.EOF:
		p.report(100)
	case p.total > 0:
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		p.report(pct)
	}
	return n, err
}

func (p *progressReader) report(pct int) {
	if pct <= p.last {
		return
	}
	p.last = pct
	p.onProgress(pct)
}
