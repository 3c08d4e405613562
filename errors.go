package bistro

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	ErrorKindTransport ErrorKind = iota
	ErrorKindTimeout
	ErrorKindProtocol
	ErrorKindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindTransport:
		return "transport"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindProtocol:
		return "protocol"
	case ErrorKindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// QueryError is the failure variant of a query result. The client layer
// never fails any other way.
type QueryError struct {
	Kind    ErrorKind
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s error: %s", e.Kind, e.Message)
}

// Is enables errors.Is matching by kind. Timeout is a subtype of
// Transport and matches both.
func (e *QueryError) Is(target error) bool {
	t, ok := target.(*QueryError)
	if !ok {
		return false
	}
	if e.Kind == ErrorKindTimeout && t.Kind == ErrorKindTransport {
		return true
	}
	return e.Kind == t.Kind
}

// IsNotFound reports whether err means the requested entity does not
// exist on the backend.
func IsNotFound(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == ErrorKindNotFound
}

// IsUnavailable reports whether err means the backend could not serve
// the query (transport, timeout, or application-level failure) as
// opposed to the entity genuinely missing.
func IsUnavailable(err error) bool {
	var qe *QueryError
	if !errors.As(err, &qe) {
		return false
	}
	switch qe.Kind {
	case ErrorKindTransport, ErrorKindTimeout, ErrorKindProtocol:
		return true
	default:
		return false
	}
}
