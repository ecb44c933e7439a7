package engine

import "fmt"

// DeviceInitError reports that the parallel compute context could not be
// initialized. The engine demotes to CPU backends; this error never aborts a
// job.
type DeviceInitError struct {
	Reason string
}

func (e *DeviceInitError) Error() string {
	return fmt.Sprintf("device init failed: %s", e.Reason)
}

// ExecutionError wraps a backend failure during kernel execution.
type ExecutionError struct {
	Backend string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
