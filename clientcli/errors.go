package clientcli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")

	ErrConfigRequired = errors.New("config is required")

	ErrNoIDs         = errors.New("no song ids provided")
	ErrEmptyPath     = errors.New("path is required")
	ErrEmptyFileName = errors.New("file name is required")
	ErrEmptyFile     = errors.New("file is empty")
)

// APIError is a non-2xx response. Code and Message are decoded from the JSON
// error body; Body keeps the raw text when it was not JSON.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "songvault: %d", e.StatusCode)
	switch {
	case e.Message != "":
		fmt.Fprintf(&b, " %s: %s", e.Code, e.Message)
	case e.Body != "":
		fmt.Fprintf(&b, ": %s", strings.TrimSpace(e.Body))
	}
	return b.String()
}

// Is matches any *APIError with the same status, so the status sentinels
// below work with errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.StatusCode == e.StatusCode
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Status sentinels for errors.Is.
var (
	ErrNotFound   = &APIError{StatusCode: http.StatusNotFound}
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}
	ErrTooLarge   = &APIError{StatusCode: http.StatusRequestEntityTooLarge}
)
