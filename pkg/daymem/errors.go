package daymem

import "fmt"

// InitError means durable storage could not be brought up. There is no
// recovery path; callers should treat it as fatal at startup.
type InitError struct {
	Err error
}

func (e *InitError) Error() string { return fmt.Sprintf("storage init: %v", e.Err) }
func (e *InitError) Unwrap() error { return e.Err }

// ReadError is a recoverable storage read failure. Callers degrade to
// "no note found".
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("storage read (%s): %v", e.Op, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is a recoverable storage write failure. The caller keeps its
// unsaved content and retries on the next save cycle.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("storage write (%s): %v", e.Op, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
