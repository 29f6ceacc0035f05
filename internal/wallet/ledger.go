package wallet

import (
	"context"
	"fmt"
)

// creditTypes lists the entry kinds the back-office credit endpoint may write
// directly. withdraw and withdraw_reject are only ever written by the
// workflow's resolve path.
var creditTypes = map[TxType]bool{
	TxBookingIncome: true,
	TxRefund:        true,
	TxSystemAdjust:  true,
}

func validSign(typ TxType, amount int64) bool {
	switch typ {
	case TxBookingIncome, TxRefund:
		return amount > 0
	case TxWithdraw:
		return amount < 0
	case TxWithdrawReject:
		return amount == 0
	case TxSystemAdjust:
		return amount != 0
	default:
		return false
	}
}

// applyTx appends one ledger entry inside an update scope and moves the
// cached balance with it. The entry's BalanceAfter snapshots the result, so
// replaying the log always reproduces the balance column.
func applyTx(tx Tx, typ TxType, amount int64, description string) (*Transaction, error) {
	if !validSign(typ, amount) {
		return nil, fmt.Errorf("%w: %s entry with amount %d", ErrInvalidAmount, typ, amount)
	}

	w := tx.Wallet()
	newBalance := w.Balance + amount
	if newBalance < 0 {
		return nil, &InsufficientFundsError{Available: w.Available()}
	}
	if w.LockedBalance > newBalance {
		// Debiting below the reserved amount would break 0 <= locked <= balance.
		return nil, fmt.Errorf("%w: balance %d would drop below locked %d",
			ErrInvariantViolation, newBalance, w.LockedBalance)
	}

	txn := &Transaction{
		WalletID:     w.OwnerID,
		Type:         typ,
		Amount:       amount,
		BalanceAfter: newBalance,
		Description:  description,
	}
	if err := tx.Append(txn); err != nil {
		return nil, err
	}
	w.Balance = newBalance
	return txn, nil
}

// reserve holds amount against pending withdrawal without debiting balance.
func reserve(tx Tx, amount int64) error {
	w := tx.Wallet()
	if amount > w.Available() {
		return &InsufficientFundsError{Available: w.Available()}
	}
	w.LockedBalance += amount
	return nil
}

// release returns a reservation. Going negative means the workflow released
// twice, which is a bug, never user input.
func release(tx Tx, amount int64) error {
	w := tx.Wallet()
	if amount > w.LockedBalance {
		return fmt.Errorf("%w: release %d exceeds locked %d",
			ErrInvariantViolation, amount, w.LockedBalance)
	}
	w.LockedBalance -= amount
	return nil
}

// Apply records one ledger entry against the wallet. The amount is signed;
// sign conventions per type are enforced and an entry that would drive the
// balance negative fails with InsufficientFunds.
func (s *Service) Apply(ctx context.Context, walletID string, typ TxType, amount int64, description string) (*Transaction, error) {
	var txn *Transaction
	err := s.store.Update(ctx, walletID, func(tx Tx) error {
		var err error
		txn, err = applyTx(tx, typ, amount, description)
		return err
	})
	if err != nil {
		s.noteInvariant(err, walletID)
		return nil, err
	}
	return txn, nil
}

// Credit is Apply restricted to the externally creditable entry types.
func (s *Service) Credit(ctx context.Context, walletID string, typ TxType, amount int64, description string) (*Transaction, error) {
	if !creditTypes[typ] {
		return nil, fmt.Errorf("%w: type %q is not creditable", ErrInvalidAmount, typ)
	}
	return s.Apply(ctx, walletID, typ, amount, description)
}

// Reserve increments the wallet's locked balance by amount.
func (s *Service) Reserve(ctx context.Context, walletID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.store.Update(ctx, walletID, func(tx Tx) error {
		return reserve(tx, amount)
	})
}

// Release returns amount from the wallet's locked balance.
func (s *Service) Release(ctx context.Context, walletID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	err := s.store.Update(ctx, walletID, func(tx Tx) error {
		return release(tx, amount)
	})
	s.noteInvariant(err, walletID)
	return err
}

func (s *Service) GetWallet(ctx context.Context, walletID string) (*Wallet, error) {
	return s.store.GetWallet(ctx, walletID)
}

func (s *Service) ListTransactions(ctx context.Context, walletID string, limit int, beforeSeq int64) ([]Transaction, error) {
	return s.store.ListTransactions(ctx, walletID, limit, beforeSeq)
}

func (s *Service) ListWallets(ctx context.Context) ([]Wallet, error) {
	return s.store.ListWallets(ctx)
}
