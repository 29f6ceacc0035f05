package wallet

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lamnguyen-dev/walletcore/internal/bankinfo"
)

// CreateWithdrawal validates the amount, the destination account, and the
// PIN, then reserves the funds and records a pending request. The reservation
// and the request commit as one unit inside a single per-wallet update scope,
// so two concurrent creates that together exceed the balance serialize and
// the second one fails against the reduced available balance.
func (s *Service) CreateWithdrawal(ctx context.Context, walletID string, amount int64, bankInfoID, rawPin string) (*WithdrawRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// Advisory pre-check so an over-large amount is reported before the
	// destination account is even looked at. The authoritative check happens
	// again under the wallet lock.
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if amount > w.Available() {
		return nil, &InsufficientFundsError{Available: w.Available()}
	}

	owns, err := bankinfo.OwnsAccount(ctx, s.banks, walletID, bankInfoID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, ErrUnknownBankAccount
	}

	var req *WithdrawRequest
	err = s.store.Update(ctx, walletID, func(tx Tx) error {
		if !tx.Wallet().HasPin() {
			return ErrPinSetupRequired
		}
		if err := s.verifyPin(tx, rawPin); err != nil {
			return err
		}
		if err := reserve(tx, amount); err != nil {
			return err
		}
		req = &WithdrawRequest{
			WalletID:    walletID,
			Amount:      amount,
			BankInfoID:  bankInfoID,
			Status:      StatusPending,
			RequestedAt: s.now(),
		}
		return tx.InsertRequest(req)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdraw request created",
		zap.String("wallet_id", walletID),
		zap.String("request_id", req.ID),
		zap.Int64("amount", amount))
	return req, nil
}

// Resolve settles a pending request. outcome must be StatusPaid
// (approved-and-paid: reservation released, balance debited, a withdraw entry
// recorded) or StatusRejected (reservation released, a zero-amount
// withdraw_reject entry recorded, no debit). A request resolves exactly once;
// any later attempt fails with InvalidStateTransition.
func (s *Service) Resolve(ctx context.Context, requestID string, outcome RequestStatus, note string) (*WithdrawRequest, error) {
	if outcome != StatusPaid && outcome != StatusRejected {
		return nil, ErrInvalidStateTransition
	}

	var resolved *WithdrawRequest
	err := s.store.UpdateByRequest(ctx, requestID, func(tx Tx, req *WithdrawRequest) error {
		if req.Status != StatusPending {
			return ErrInvalidStateTransition
		}
		if err := release(tx, req.Amount); err != nil {
			return err
		}
		switch outcome {
		case StatusPaid:
			if _, err := applyTx(tx, TxWithdraw, -req.Amount, note); err != nil {
				return err
			}
		case StatusRejected:
			if _, err := applyTx(tx, TxWithdrawReject, 0, note); err != nil {
				return err
			}
		}
		now := s.now()
		req.Status = outcome
		req.Note = note
		req.ResolvedAt = &now
		resolved = req
		return tx.UpdateRequest(req)
	})
	if err != nil {
		s.noteInvariant(err, requestID)
		return nil, err
	}

	s.log.Info("withdraw request resolved",
		zap.String("request_id", requestID),
		zap.String("outcome", string(outcome)))
	return resolved, nil
}

func (s *Service) ListRequests(ctx context.Context, walletID string, status RequestStatus) ([]WithdrawRequest, error) {
	return s.store.ListRequests(ctx, walletID, status)
}

func (s *Service) ListPendingRequests(ctx context.Context) ([]WithdrawRequest, error) {
	return s.store.ListPendingRequests(ctx)
}

// noteInvariant logs invariant violations for operator attention. They are
// never retried or corrected in place.
func (s *Service) noteInvariant(err error, subject string) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrInvariantViolation) {
		s.log.Error("wallet invariant violation",
			zap.String("subject", subject),
			zap.Error(err))
	}
}
