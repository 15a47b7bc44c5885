package importer

import (
	"errors"

	"gomarketplace_vendor/internal/vendorpanel/pkg/clients"
)

// ErrNothingToConfirm is returned when there is no previewed file, or its upload is
// still in flight.
var ErrNothingToConfirm = errors.New("no previewed import to confirm")

// ValidationError means the backend refused the file or the confirmation. Message is
// the backend's text, meant for the vendor.
type ValidationError struct {
	Op      string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// userMessage extracts what the vendor should read from err.
func userMessage(err error) string {
	if apiErr, ok := clients.AsAPIError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}

// classify wraps backend rejections into *ValidationError and leaves other errors as is.
func classify(op string, err error) error {
	if apiErr, ok := clients.AsAPIError(err); ok && apiErr.Rejected() {
		return &ValidationError{Op: op, Message: apiErr.Message, Err: err}
	}
	return err
}
