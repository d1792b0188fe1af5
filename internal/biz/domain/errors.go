package domain

import "fmt"

// ConfigurationError means the roster or schedule is unusable. It aborts
// the cycle before any cursor mutation.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ScheduleUnavailableError means the backing spreadsheet could not be read
type ScheduleUnavailableError struct {
	Cause error
}

func (e *ScheduleUnavailableError) Error() string {
	return fmt.Sprintf("schedule unavailable: %v", e.Cause)
}

func (e *ScheduleUnavailableError) Unwrap() error { return e.Cause }

// FetchError is a per-post comment fetch failure; it never aborts the
// processing of other posts in the same cycle
type FetchError struct {
	PostID string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for post %s: %v", e.PostID, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// PostDeletedError means the Reddit post was removed or deleted upstream
type PostDeletedError struct {
	PostID string
}

func (e *PostDeletedError) Error() string {
	return fmt.Sprintf("post %s has been deleted or removed", e.PostID)
}

// DeliveryError is a per-message notification failure (logged, non-fatal)
type DeliveryError struct {
	ChatID string
	Cause  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to chat %s failed: %v", e.ChatID, e.Cause)
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

// DraftError is a per-comment reply generation failure; the assignment is
// still dispatched with the fallback draft
type DraftError struct {
	Cause error
}

func (e *DraftError) Error() string {
	return fmt.Sprintf("draft generation failed: %v", e.Cause)
}

func (e *DraftError) Unwrap() error { return e.Cause }

// StatePersistError is fatal to the cycle's persistence step only:
// already-sent notifications stand, and the next cycle reprocesses from the
// last cursor that did persist
type StatePersistError struct {
	Cause error
}

func (e *StatePersistError) Error() string {
	return fmt.Sprintf("state persist failed: %v", e.Cause)
}

func (e *StatePersistError) Unwrap() error { return e.Cause }
