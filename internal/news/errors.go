package news

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyInput is returned when a required parameter such as a search term is empty.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnsupportedQuery is returned when a provider is asked for a kind it does not serve.
	ErrUnsupportedQuery = errors.New("unsupported query kind")
	// ErrNoProvider is returned when no configured provider serves a kind.
	ErrNoProvider = errors.New("no provider configured")
)

// TransportError is a network failure or timeout talking to a provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response or an error status reported in the payload.
type HTTPError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, msg)
}

// DecodeError is a malformed provider payload.
type DecodeError struct {
	Provider string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode error: %v", e.Provider, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
