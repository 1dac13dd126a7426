package mongos

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// Connection errors
	ErrConnectFailed    = errors.New("connect failed")
	ErrDisconnectFailed = errors.New("disconnect failed")
	ErrNotConnected     = errors.New("connection is not established")

	// Model registry errors
	ErrModelExists  = errors.New("model already registered")
	ErrInvalidModel = errors.New("invalid model")
)

// ErrorWithContext adds additional context to errors for better debugging and logging
type ErrorWithContext struct {
	Err     error
	Context map[string]interface{}
}

func (e *ErrorWithContext) Error() string {
	if len(e.Context) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (context: %+v)", e.Err, e.Context)
}

func (e *ErrorWithContext) Unwrap() error {
	return e.Err
}

// WithContext adds context to an error
func WithContext(err error, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ErrorWithContext{
		Err:     err,
		Context: context,
	}
}

// wrapCause joins a sentinel with the driver error that caused it, so both
// errors.Is(err, sentinel) and errors.Is(err, cause) hold.
func wrapCause(sentinel, cause error, context map[string]interface{}) error {
	if cause == nil {
		return WithContext(sentinel, context)
	}
	return WithContext(fmt.Errorf("%w: %w", sentinel, cause), context)
}

// IsConnectionError checks if an error came from establishing or tearing down a connection
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectFailed) ||
		errors.Is(err, ErrDisconnectFailed) ||
		errors.Is(err, ErrNotConnected)
}

// IsInvalidConfig checks if an error was caused by bad configuration
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
