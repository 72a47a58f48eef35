package loader

import (
	"fmt"
	"net/http"
)

// RetrievalError is a failed fetch of the manifest or of a dataset file:
// either a non-success status or a transport failure.
type RetrievalError struct {
	Path   string
	Status int   // response status, 0 when no response was received
	Err    error // transport cause, nil for status failures
}

func (e *RetrievalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("could not load %s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("could not load %s: %v", e.Path, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func NewStatusError(path string, status int) *RetrievalError {
	return &RetrievalError{Path: path, Status: status}
}

func NewTransportError(path string, err error) *RetrievalError {
	return &RetrievalError{Path: path, Err: err}
}
