package registry

import (
	"errors"
	"net/http"
)

// modelNotFoundError is returned when no card file exists at the physical
// location <root>/<organization>/<filename-id>.json, or the file there is not
// a valid card.
type modelNotFoundError struct {
	org   string
	id    string
	cause error
}

func (e modelNotFoundError) Error() string {
	msg := "model card not found: " + e.org + "/" + e.id
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e modelNotFoundError) Unwrap() error { return e.cause }

// StatusCode maps the error to 404 for the HTTP layer.
func (e modelNotFoundError) StatusCode() int { return http.StatusNotFound }

// ErrModelNotFound constructs the error returned by Registry.Model.
func ErrModelNotFound(org, id string) error { return modelNotFoundError{org: org, id: id} }

// IsModelNotFound reports whether err indicates a missing model card.
func IsModelNotFound(err error) bool {
	var target modelNotFoundError
	return errors.As(err, &target)
}
