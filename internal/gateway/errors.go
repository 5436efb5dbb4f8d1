package gateway

import (
	"errors"
	"fmt"
)

// ErrUnauthorized reports that the backend rejected the session credential.
// The gateway has already cleared the stored session and fired the expiry
// hook by the time a caller sees this; callers must not retry.
var ErrUnauthorized = errors.New("session rejected by backend")

// RequestError reports a non-success status other than 401, with the
// server-supplied detail message when one was present.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// UnreachableError reports that no response was received at all.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a success status whose body could not be
// decoded.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed backend response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
