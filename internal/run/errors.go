package run

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when the production confirmation is declined.
var ErrAborted = errors.New("aborted")

// UsageError reports a bad or missing command-line argument.
type UsageError struct {
	Arg     string
	Message string
}

func (e *UsageError) Error() string {
	if e.Arg != "" {
		return fmt.Sprintf("usage error: %s: %s", e.Arg, e.Message)
	}
	return fmt.Sprintf("usage error: %s", e.Message)
}

// ConfigError reports a missing environment file, playbook or inventory.
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExecError means the external tool could not be started at all. A tool that
// starts and exits non-zero is not an ExecError.
type ExecError struct {
	Bin string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("cannot run %s: %v", e.Bin, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}
