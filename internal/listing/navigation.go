package listing

// Crumb is one ancestor folder reference in the breadcrumb path.
type Crumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Navigation tracks the breadcrumb path. The path is empty exactly when
// the current scope is root.
type Navigation struct {
	path []Crumb
}

// Current returns the current folder ID, or "" at root.
func (n *Navigation) Current() string {
	if len(n.path) == 0 {
		return ""
	}
	return n.path[len(n.path)-1].ID
}

// Enter appends a folder to the path.
func (n *Navigation) Enter(id, name string) {
	n.path = append(n.path, Crumb{ID: id, Name: name})
}

// JumpTo truncates the path to length i+1, navigating to breadcrumb i.
// An out-of-range index is ignored.
func (n *Navigation) JumpTo(i int) {
	if i < 0 || i >= len(n.path) {
		return
	}
	n.path = n.path[:i+1]
}

// Back pops the deepest breadcrumb; with one or zero elements it clears
// to root.
func (n *Navigation) Back() {
	if len(n.path) <= 1 {
		n.path = nil
		return
	}
	n.path = n.path[:len(n.path)-1]
}

// PathCopy returns a copy of the breadcrumb path.
func (n *Navigation) PathCopy() []Crumb {
	out := make([]Crumb, len(n.path))
	copy(out, n.path)
	return out
}
