package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDataProvided is returned when a request is missing required
	// fields or a field fails validation.
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrInvalidCredentials is returned when the username is unknown or the
	// PIN does not match. The two cases are deliberately indistinguishable so
	// a caller cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or PIN")

	// ErrAccountDisabled is returned when a deactivated account attempts to
	// log in.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrAccountLocked is the sentinel wrapped by [AccountLockedError].
	ErrAccountLocked = errors.New("account is locked")

	// ErrDuplicateUsername is returned when creating a user whose normalized
	// username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrUserNotFound is returned when an operation targets a user that does
	// not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrBoxNotFound is returned when an operation targets a box that does
	// not exist.
	ErrBoxNotFound = errors.New("box not found")

	// ErrDuplicateBoxNumber is returned when creating or renaming a box to a
	// box number that is already taken.
	ErrDuplicateBoxNumber = errors.New("box number already exists")

	// ErrForbidden is returned when the acting identity lacks the role or
	// assignment required by the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrCannotSelfDeactivate is returned when an admin tries to deactivate
	// their own account.
	ErrCannotSelfDeactivate = errors.New("cannot deactivate your own account")

	// ErrTokenIsExpiredOrInvalid is returned when bearer token verification
	// fails for any reason.
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
)

// PINMismatchError is returned when the PIN is wrong but the account is not
// locked yet. It wraps [ErrInvalidCredentials] and carries how many attempts
// remain before lockout.
type PINMismatchError struct {
	AttemptsRemaining int
}

func (e *PINMismatchError) Error() string {
	return fmt.Sprintf("invalid username or PIN: %d attempts remaining", e.AttemptsRemaining)
}

func (e *PINMismatchError) Unwrap() error {
	return ErrInvalidCredentials
}

// AccountLockedError is returned when the account is locked out. It wraps
// [ErrAccountLocked] and carries how long the caller must wait before the
// lockout expires.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is locked: try again in %d seconds", e.RetryAfterSeconds())
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}

// RetryAfterSeconds returns the remaining lockout rounded up to whole
// seconds, never below 1.
func (e *AccountLockedError) RetryAfterSeconds() int {
	seconds := int((e.RetryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	return seconds
}
