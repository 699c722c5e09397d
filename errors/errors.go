// Package errors defines the error taxonomy shared by services, repositories
// and the gateway. Every failure a caller can act on wraps one of the kind
// sentinels below, so call sites match with errors.Is and surface the reason
// string to the client.
package errors

import (
	"errors"
	"fmt"
)

// Kind sentinels. Services wrap these with a reason using Validationf & co.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("unauthorized")
	ErrNotFound   = errors.New("not found")
	ErrPermission = errors.New("permission denied")
	ErrState      = errors.New("illegal state")
	ErrStorage    = errors.New("storage failure")
)

// Well-known reasons reused across services and tests.
var (
	ErrNoSuchUser        = fmt.Errorf("%w: no user", ErrAuth)
	ErrWrongPassword     = fmt.Errorf("%w: wrong password", ErrAuth)
	ErrUsernameTaken     = fmt.Errorf("%w: username exists", ErrAuth)
	ErrInvalidToken      = fmt.Errorf("%w: invalid or expired token", ErrAuth)
	ErrTokenGeneration   = fmt.Errorf("%w: token generation failed", ErrAuth)
	ErrOwnerCannotLeave  = fmt.Errorf("%w: owner cant leave", ErrState)
	ErrChannelTombstoned = fmt.Errorf("%w: channel deleted", ErrState)
	ErrWorkerPanic       = errors.New("worker panic")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Permissionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermission, fmt.Sprintf(format, args...))
}

// Storagef wraps a persistence-layer failure so callers can distinguish it
// from domain errors without inspecting badger internals.
func Storagef(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, fmt.Sprintf(format, args...), err)
}

// Reason extracts the client-facing reason string. The full chain stays
// available server-side for logging.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Is is re-exported so call sites do not need a second import line.
func Is(err, target error) bool { return errors.Is(err, target) }
