package storageapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification. Use errors.Is(err,
// storageapi.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("storageapi: bad request")
	ErrUnauthorized = errors.New("storageapi: unauthorized")
	ErrForbidden    = errors.New("storageapi: forbidden")
	ErrNotFound     = errors.New("storageapi: not found")
	ErrConflict     = errors.New("storageapi: conflict")
	ErrServerError  = errors.New("storageapi: server error")
	ErrDecode       = errors.New("storageapi: malformed response payload")
)

// excerptLimit bounds how much of an error response body is retained for
// diagnostics; storage-zone error bodies can be arbitrarily large HTML pages.
const excerptLimit = 512

// HTTPError wraps a sentinel error with the HTTP status code and a body
// excerpt, satisfying errors.Is via Unwrap.
type HTTPError struct {
	StatusCode int
	Path       string
	Excerpt    string
	Err        error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("storageapi: HTTP %d on %s: %s", e.StatusCode, e.Path, e.Excerpt)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// newHTTPError builds an *HTTPError from a status code and response body,
// truncating the body to excerptLimit bytes for the diagnostic message.
func newHTTPError(path string, statusCode int, body []byte) *HTTPError {
	excerpt := string(body)
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}

	return &HTTPError{
		StatusCode: statusCode,
		Path:       path,
		Excerpt:    excerpt,
		Err:        classifyStatus(statusCode),
	}
}

// classifyStatus maps an HTTP status code to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return fmt.Errorf("storageapi: unexpected status %d", code)
	}
}
