package luigisbox

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyItems matches *TooManyItemsError.
	ErrTooManyItems = errors.New("luigisbox: too many items")
	// ErrValidation matches *ValidationError.
	ErrValidation = errors.New("luigisbox: invalid request payload")
	// ErrTransport matches *TransportError.
	ErrTransport = errors.New("luigisbox: transport failure")
	// ErrProtocol matches *ProtocolError.
	ErrProtocol = errors.New("luigisbox: unexpected response")
)

// TooManyItemsError is returned before any request is sent when a batch
// exceeds the operation's limit.
type TooManyItemsError struct {
	Op     string
	Limit  int
	Actual int
}

func (e *TooManyItemsError) Error() string {
	return fmt.Sprintf("luigisbox: %s: Expect less than or equal %d items. Got %d.", e.Op, e.Limit, e.Actual)
}

func (e *TooManyItemsError) Is(target error) bool {
	return target == ErrTooManyItems
}

// ValidationError is returned before any request is sent when the payload is
// structurally invalid (empty batch, missing URL, non-positive job id).
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("luigisbox: %s: invalid payload: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransportError reports a failed round trip: the request could not be
// delivered, or the server answered outside 2xx. StatusCode is zero for
// connection-level failures.
type TransportError struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("luigisbox: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("luigisbox: %s: status %d: %s", e.Op, e.StatusCode, string(e.Body))
	default:
		return fmt.Sprintf("luigisbox: %s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ProtocolError reports a 2xx response whose body cannot be turned into a
// result: malformed JSON or a missing required field.
type ProtocolError struct {
	Op   string
	Msg  string
	Body []byte
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("luigisbox: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("luigisbox: %s: %s", e.Op, e.Msg)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}
