package wallet

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	pinLength         = 6
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

// validPinFormat requires exactly 6 ASCII digits. Anything else fails before
// hashing and never counts as a failed attempt.
func validPinFormat(raw string) bool {
	if len(raw) != pinLength {
		return false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return false
		}
	}
	return true
}

// SetPin configures the wallet's withdrawal PIN. Changing an existing PIN
// goes through a separate flow, so a second SetPin is refused.
func (s *Service) SetPin(ctx context.Context, walletID, rawPin string) error {
	if !validPinFormat(rawPin) {
		return ErrInvalidPinFormat
	}
	return s.store.Update(ctx, walletID, func(tx Tx) error {
		w := tx.Wallet()
		if w.HasPin() {
			return ErrPinAlreadySet
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(rawPin), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		h := string(hash)
		w.PinHash = &h
		return nil
	})
}

// verifyPin checks the PIN inside an update scope. A wrong PIN increments the
// attempt counter and, at the threshold, starts the lockout window; the
// returned error is keepState-wrapped so those mutations commit even though
// the surrounding operation aborts. While locked out, verification is refused
// without consuming an attempt.
func (s *Service) verifyPin(tx Tx, rawPin string) error {
	w := tx.Wallet()
	if !w.HasPin() {
		return ErrPinSetupRequired
	}
	now := s.now()
	if w.LockedUntil != nil && w.LockedUntil.After(now) {
		return ErrWalletLocked
	}
	if !validPinFormat(rawPin) {
		return ErrInvalidPinFormat
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*w.PinHash), []byte(rawPin)); err != nil {
		w.FailedPinAttempts++
		if w.FailedPinAttempts >= maxFailedAttempts {
			until := now.Add(lockoutDuration)
			w.LockedUntil = &until
		}
		return keepState(ErrInvalidPin)
	}
	w.FailedPinAttempts = 0
	w.LockedUntil = nil
	return nil
}

// VerifyPin is the standalone check behind POST /wallet/verify-pin. It grants
// nothing; the withdrawal call re-verifies inside its own scope.
func (s *Service) VerifyPin(ctx context.Context, walletID, rawPin string) error {
	return s.store.Update(ctx, walletID, func(tx Tx) error {
		return s.verifyPin(tx, rawPin)
	})
}
