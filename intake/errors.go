package intake

import "fmt"

// ValidationError reports a missing required input. It is returned before any
// side effect happened, so the user can simply resubmit.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing " + e.Field
}

// StorageError means the blob write failed and nothing was stored.
type StorageError struct {
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storing %s: %v", e.Name, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotificationError is a failed notification. It never fails a submission
// and only shows up as a warning on the Result.
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
