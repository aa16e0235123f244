package guide

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrTurnNotFound = errors.New("turn not found")
	ErrNotRetryable = errors.New("turn is not a failed user turn")
	ErrNoTileSource = errors.New("tile source not configured")
	ErrNoTransport  = errors.New("transport not configured")
)

// FallbackMessage is shown when a failure carries no usable message.
const FallbackMessage = "Something went wrong. Please try again."

// TransportError is returned by a Transport when the chat call did not
// succeed: a non-200 status or a network failure.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("guide transport: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("guide transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SendError is the recoverable failure of a dispatch. The user turn of
// Exchange is marked failed and can be retried.
type SendError struct {
	Exchange Exchange
	Message  string
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send guide message: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func newSendError(ex Exchange, err error) *SendError {
	msg := FallbackMessage
	var te *TransportError
	if errors.As(err, &te) {
		if te.Err != nil && te.Err.Error() != "" {
			msg = te.Err.Error()
		}
	} else if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &SendError{Exchange: ex, Message: msg, Err: err}
}
