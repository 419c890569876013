package upstream

import (
	"errors"
	"fmt"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
)

// UnavailableError is a call that produced no usable envelope: transport failure,
// timeout, non-JSON body or an error status without a server message.
type UnavailableError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError is a business failure: the envelope's success flag was not true.
type RejectedError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("upstream %s rejected the request: %s", e.Endpoint, e.Message)
}

// IsRejected reports whether err is a business failure and returns it.
func IsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// AsAppError maps an upstream failure onto the console's error taxonomy. resource names
// the thing being fetched for the generic "Error fetching X" message.
func AsAppError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if rej, ok := IsRejected(err); ok {
		return models.NewRejectedError(rej.Message)
	}
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return models.NewUpstreamError(resource, err)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
