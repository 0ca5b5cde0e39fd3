package reminder

import "fmt"

// SchedulingError wraps a failed platform call. It is logged, never returned to callers.
type SchedulingError struct {
	TaskID string
	Op     string
	Err    error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("%s reminder for task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}
