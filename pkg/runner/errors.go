package runner

import "fmt"

// ExecError is a statement that failed while executing. It ends the run.
type ExecError struct {
	Code    int    // engine result code
	Message string // engine message
	SQL     string // statement source
	Err     error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("execution failed: %d %s", e.Code, e.Message)
}

// Unwrap returns the engine error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// StopError reports that the script called exit. It is how a run ends
// normally.
type StopError struct {
	Code int
}

// Error implements the error interface.
func (e *StopError) Error() string {
	return fmt.Sprintf("script stopped with code %d", e.Code)
}
