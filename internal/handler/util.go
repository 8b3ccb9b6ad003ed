package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/mutation"
	"github.com/lamnt-dev/drivebox/internal/notebook"
	"github.com/lamnt-dev/drivebox/internal/session"
)

// GetHeader looks up a request header case-insensitively. API Gateway does
// not normalize header casing.
func GetHeader(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// jsonResponse marshals v into a JSON API Gateway response.
func jsonResponse(status int, v interface{}) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(v)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// errorResponse maps service errors to HTTP statuses.
func errorResponse(op string, err error) events.APIGatewayProxyResponse {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, mutation.ErrValidation), errors.Is(err, notebook.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, notebook.ErrConfirmationMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, adapter.ErrNotFound), errors.Is(err, notebook.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, adapter.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, adapter.ErrRateLimited):
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		fmt.Printf("%s error: %v\n", op, err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       fmt.Sprintf("%s failed: %v", op, err),
	}
}

// requestBody returns the raw request body, decoding base64 when API
// Gateway flagged it.
func requestBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	return base64.StdEncoding.DecodeString(req.Body)
}

// uploadPart is one parsed part of a multipart upload.
type uploadPart struct {
	FileName string
	MIMEType string
	Content  []byte
}

// parseMultipart parses a multipart/form-data request body into file parts
// and plain form fields.
func parseMultipart(req events.APIGatewayProxyRequest) ([]uploadPart, map[string]string, error) {
	contentType := GetHeader(req, "Content-Type")
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid content type: %w", err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, nil, fmt.Errorf("missing multipart boundary")
	}

	body, err := requestBody(req)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid body encoding: %w", err)
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	form, err := mr.ReadForm(64 << 20)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid multipart body: %w", err)
	}
	defer form.RemoveAll()

	fields := make(map[string]string)
	for k, vs := range form.Value {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}

	var parts []uploadPart
	for _, headers := range form.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return nil, nil, err
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, nil, err
			}

			mimeType := fh.Header.Get("Content-Type")
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}
			parts = append(parts, uploadPart{
				FileName: fh.Filename,
				MIMEType: mimeType,
				Content:  content,
			})
		}
	}
	return parts, fields, nil
}
