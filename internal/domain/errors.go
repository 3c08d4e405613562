package domain

import "fmt"

// NotFoundError represents content that does not exist on the backend.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing content.
var ErrNotFound = NotFoundError{}

// UnavailableError represents a backend that could not serve the
// request. It is kept distinct from NotFoundError end-to-end so a
// connectivity problem is never rendered as a missing page.
type UnavailableError struct {
	Reason string
}

func (e UnavailableError) Error() string {
	if e.Reason == "" {
		return "content backend unavailable"
	}
	return fmt.Sprintf("content backend unavailable: %s", e.Reason)
}

// Is enables errors.Is matching on UnavailableError.
func (e UnavailableError) Is(target error) bool {
	_, ok := target.(UnavailableError)
	if ok {
		return true
	}
	_, ok = target.(*UnavailableError)
	return ok
}

// ErrUnavailable is the sentinel error for an unreachable or failing
// backend.
var ErrUnavailable = UnavailableError{}
