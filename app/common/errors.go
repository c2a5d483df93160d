package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds surfaced by the core. Errors wrap one of these together with
// their cause, so callers can both errors.Is the kind and read the detail.
var (
	ErrTransientIO = errors.New("transient I/O failure")
	ErrDecode      = errors.New("decode failure")
	ErrStore       = errors.New("store failure")
)

type UserVisibleError struct {
	HttpCode int
	Message  string
}

func (e *UserVisibleError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.HttpCode, e.Message)
}

func NewUserVisibleError(httpCode int, message string) *UserVisibleError {
	return &UserVisibleError{
		HttpCode: httpCode,
		Message:  message,
	}
}

// HTTPStatus maps an error returned by the core to a response status.
func HTTPStatus(err error) int {
	var uve *UserVisibleError
	switch {
	case errors.As(err, &uve):
		return uve.HttpCode
	case errors.Is(err, ErrTransientIO):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to put in a response for err. Only
// user-visible errors keep their detail.
func PublicMessage(err error) string {
	var uve *UserVisibleError
	if errors.As(err, &uve) {
		return uve.Message
	}
	if errors.Is(err, ErrTransientIO) {
		return "Service temporarily unavailable."
	}
	return "Internal server error."
}
