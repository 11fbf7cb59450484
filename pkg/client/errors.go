package client

import (
	"errors"
	"fmt"
)

// UnknownErrorText is reported when the API signals an error without text.
const UnknownErrorText = "unknown error"

// Common errors returned by the client.
var (
	// ErrMalformedResponse is returned when the response is not a VWorld envelope.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// VWorldError represents a failed page request with its classification.
type VWorldError struct {
	ErrorClass ErrorClass

	// Page is the 1-based page number of the request.
	Page int

	// Status is the envelope status (e.g. "ERROR"); empty for transport errors.
	Status string

	// Code is the API error code (e.g. "INCORRECT_KEY"), if any.
	Code string

	// HTTPStatus is the HTTP status code, 0 if no response was received.
	HTTPStatus int

	Message string
	Err     error
}

// Error implements the error interface.
func (e *VWorldError) Error() string {
	switch {
	case e.ErrorClass == ErrorClassAPI && e.Code != "":
		return fmt.Sprintf("VWorld %s error on page %d (%s %s): %s",
			e.ErrorClass, e.Page, e.Status, e.Code, e.Message)
	case e.ErrorClass == ErrorClassAPI:
		return fmt.Sprintf("VWorld %s error on page %d (%s): %s",
			e.ErrorClass, e.Page, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("VWorld %s error on page %d: %s: %v",
			e.ErrorClass, e.Page, e.Message, e.Err)
	default:
		return fmt.Sprintf("VWorld %s error on page %d: %s",
			e.ErrorClass, e.Page, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *VWorldError) Unwrap() error {
	return e.Err
}

// IsAPIError reports whether err is an explicit API rejection.
func IsAPIError(err error) bool {
	var vErr *VWorldError
	return errors.As(err, &vErr) && vErr.ErrorClass == ErrorClassAPI
}

// IsTransportError reports whether err is a transport or payload failure.
func IsTransportError(err error) bool {
	var vErr *VWorldError
	return errors.As(err, &vErr) && vErr.ErrorClass == ErrorClassTransport
}
