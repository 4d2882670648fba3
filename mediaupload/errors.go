package mediaupload

import (
	"errors"
	"fmt"

	"github.com/bitrise-io/go-mediaupload/credential"
	"github.com/bitrise-io/go-mediaupload/source"
)

var (
	// ErrNoAccountsFound ...
	ErrNoAccountsFound = credential.ErrNoAccountsFound
	// ErrPermissionDenied ...
	ErrPermissionDenied = credential.ErrPermissionDenied
	// ErrFileNotFound ...
	ErrFileNotFound = source.ErrFileNotFound
	// ErrFileSizeUnavailable ...
	ErrFileSizeUnavailable = source.ErrFileSizeUnavailable
	// ErrMalformedResponse is the cause of a failed phase whose response body
	// is not a JSON object or lacks a required key.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrProcessingFailed is the cause of a failed STATUS phase when the platform rejects the media.
	ErrProcessingFailed = errors.New("media processing failed")
)

// Kind classifies an upload failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoAccountsFound
	KindPermissionDenied
	KindFileNotFound
	KindFileSizeUnavailable
	KindRequestFailed
)

func (k Kind) String() string {
	switch k {
	case KindNoAccountsFound:
		return "NoAccountsFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindFileNotFound:
		return "FileNotFound"
	case KindFileSizeUnavailable:
		return "FileSizeUnavailable"
	case KindRequestFailed:
		return "RequestFailed"
	default:
		return "Unknown"
	}
}

// RequestFailedError is returned when one of the network phases fails.
type RequestFailedError struct {
	Phase Phase
	Cause error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("%s request failed: %s", e.Phase, e.Cause)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Cause
}

// KindOf maps an error returned by the uploader to its Kind.
func KindOf(err error) Kind {
	var requestErr *RequestFailedError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &requestErr):
		return KindRequestFailed
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrNoAccountsFound):
		return KindNoAccountsFound
	case errors.Is(err, ErrFileSizeUnavailable):
		return KindFileSizeUnavailable
	case errors.Is(err, ErrFileNotFound):
		return KindFileNotFound
	default:
		return KindUnknown
	}
}

// PhaseOf returns the failed phase of a RequestFailed error.
func PhaseOf(err error) (Phase, bool) {
	var requestErr *RequestFailedError
	if errors.As(err, &requestErr) {
		return requestErr.Phase, true
	}
	return "", false
}
