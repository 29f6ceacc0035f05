package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInsufficientFunds      = errors.New("insufficient available balance")
	ErrInvalidPinFormat       = errors.New("pin must be exactly 6 digits")
	ErrPinAlreadySet          = errors.New("pin already set")
	ErrPinSetupRequired       = errors.New("pin setup required")
	ErrInvalidPin             = errors.New("invalid pin")
	ErrWalletLocked           = errors.New("wallet temporarily locked")
	ErrUnknownBankAccount     = errors.New("unknown bank account")
	ErrInvalidStateTransition = errors.New("request already resolved")
	ErrRequestNotFound        = errors.New("withdraw request not found")

	// ErrInvariantViolation indicates a workflow bug, never bad input. It is
	// logged and surfaced as an internal error, never corrected silently.
	ErrInvariantViolation = errors.New("wallet invariant violation")
)

// InsufficientFundsError carries the available balance so the client can
// correct its input. errors.Is(err, ErrInsufficientFunds) matches it.
type InsufficientFundsError struct {
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient available balance (available %d)", e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// keepStateError wraps a failure whose wallet mutations must still be
// committed. A wrong PIN aborts the withdrawal, but the failed-attempt
// counter it incremented has to stick or the lockout could be raced away.
type keepStateError struct {
	err error
}

func (e *keepStateError) Error() string { return e.err.Error() }
func (e *keepStateError) Unwrap() error { return e.err }

func keepState(err error) error {
	return &keepStateError{err: err}
}

// shouldCommit reports whether a failed update scope must persist anyway.
func shouldCommit(err error) bool {
	if err == nil {
		return true
	}
	var k *keepStateError
	return errors.As(err, &k)
}
