package transport

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed backend call. Callers branch on Kind, never on the
// error text.
type Kind string

const (
	KindTimeout            Kind = "timeout"
	KindNetworkUnreachable Kind = "network_unreachable"
	KindHTTP               Kind = "http_error"
	KindNotFound           Kind = "not_found"
	KindServerError        Kind = "server_error"
	KindCanceled           Kind = "canceled"
	KindDecode             Kind = "decode_error"
)

// Error is the only error type returned by Client for a performed request.
type Error struct {
	Kind    Kind
	Path    string
	Status  int
	Elapsed time.Duration
	Err     error
}

var (
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrNetworkUnreachable = &Error{Kind: KindNetworkUnreachable}
	ErrHTTP               = &Error{Kind: KindHTTP}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrServerError        = &Error{Kind: KindServerError}
	ErrCanceled           = &Error{Kind: KindCanceled}
	ErrDecode             = &Error{Kind: KindDecode}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("GET %s: timeout after %dms", e.Path, e.Elapsed.Milliseconds())
	case KindNotFound:
		return fmt.Sprintf("GET %s: not found", e.Path)
	case KindServerError:
		return fmt.Sprintf("GET %s: server error (%d)", e.Path, e.Status)
	case KindHTTP:
		return fmt.Sprintf("GET %s: http status %d", e.Path, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("GET %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("GET %s: %s", e.Path, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, and by Status when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Status == 0 || t.Status == e.Status)
}

// KindOf returns the Kind of err, or "" when err is not a transport error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// IsCanceled reports whether err comes from the caller cancelling the request.
func IsCanceled(err error) bool {
	return KindOf(err) == KindCanceled
}

func statusError(path string, status int, elapsed time.Duration) *Error {
	kind := KindHTTP
	switch {
	case status == 404:
		kind = KindNotFound
	case status >= 500:
		kind = KindServerError
	}
	return &Error{Kind: kind, Path: path, Status: status, Elapsed: elapsed}
}
