package master

import (
	"errors"
	"fmt"

	"github.com/robotalks/mbascii/pkg/frame"
)

var (
	// ErrTransactionTimeout indicates no response after all attempts.
	ErrTransactionTimeout = errors.New("transaction timeout")
	// ErrInvalidConfig indicates timeout, retries or char gap out of range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidRequest indicates a request which can't be encoded.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnexpectedResponse indicates a reply not matching the request.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// ExceptionError is an exception reply from a station.
type ExceptionError struct {
	Function frame.FnCode
	Code     string
}

// Error implements error.
func (e *ExceptionError) Error() string {
	return fmt.Sprintf("exception %s on %s", e.Code, e.Function)
}

// IllegalFunction indicates the station doesn't support the function.
func (e *ExceptionError) IllegalFunction() bool {
	return e.Code == string(frame.ExIllegalFunction)
}
