package collector

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	NetworkFailure ErrorKind = iota + 1 // timeout, DNS, non-2xx
	ParseFailure                        // unexpected response shape
	NoCredentials                       // missing API key, treated as a permanent network failure
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case ParseFailure:
		return "parse failure"
	case NoCredentials:
		return "no credentials"
	default:
		return "unknown"
	}
}

var (
	// ErrNoCredentials is wrapped by every NoCredentials FetchError.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrInvalidSymbol is returned for empty or malformed symbols.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// FetchError is returned by provider clients.
type FetchError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind carried by err, or 0 when err is not a FetchError.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

func networkError(provider string, err error, format string, args ...interface{}) error {
	return &FetchError{Provider: provider, Kind: NetworkFailure, Err: errors.Wrapf(err, format, args...)}
}

func parseError(provider string, err error, format string, args ...interface{}) error {
	return &FetchError{Provider: provider, Kind: ParseFailure, Err: errors.Wrapf(err, format, args...)}
}

func statusError(provider string, status int, body string) error {
	if len(body) > 200 {
		body = body[:200]
	}
	return &FetchError{Provider: provider, Kind: NetworkFailure, Err: errors.Errorf("status %d, body: %s", status, body)}
}

func credentialsError(provider string) error {
	return &FetchError{Provider: provider, Kind: NoCredentials, Err: ErrNoCredentials}
}
