package archive

import "errors"

// Outcome reports what happened to one artifact (a book file or a sidecar directory).
// Err is set when the artifact was not relocated; Warning is set when it was
// copied but the original could not be removed (wraps ErrOrphanCopy).
type Outcome struct {
	Source  string `json:"source"`
	Dest    string `json:"dest,omitempty"`
	Copied  bool   `json:"copied"`
	Removed bool   `json:"removed"`
	Bytes   int64  `json:"bytes"`
	Err     error  `json:"-"`
	Warning error  `json:"-"`
}

// OK reports whether the artifact reached its destination.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result holds the independent outcomes of a book and its sidecar.
// Sidecar is nil when the book has no sidecar directory.
type Result struct {
	Book    Outcome  `json:"book"`
	Sidecar *Outcome `json:"sidecar,omitempty"`
}

// OK reports whether every attempted artifact succeeded.
func (r Result) OK() bool {
	return r.Book.OK() && (r.Sidecar == nil || r.Sidecar.OK())
}

// Err joins the errors of both halves.
func (r Result) Err() error {
	errs := []error{r.Book.Err}
	if r.Sidecar != nil {
		errs = append(errs, r.Sidecar.Err)
	}
	return errors.Join(errs...)
}

// Warnings joins the warnings of both halves.
func (r Result) Warnings() error {
	errs := []error{r.Book.Warning}
	if r.Sidecar != nil {
		errs = append(errs, r.Sidecar.Warning)
	}
	return errors.Join(errs...)
}
