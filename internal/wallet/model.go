package wallet

import "time"

// Wallet is one owner's balance row. Available funds are always derived as
// Balance - LockedBalance and never stored.
type Wallet struct {
	OwnerID           string     `json:"owner_id"`
	Balance           int64      `json:"balance"`
	LockedBalance     int64      `json:"locked_balance"`
	PinHash           *string    `json:"-"`
	FailedPinAttempts int        `json:"-"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Available returns the amount the owner may still withdraw or reserve.
func (w *Wallet) Available() int64 {
	return w.Balance - w.LockedBalance
}

// HasPin reports whether a withdrawal PIN has been configured.
func (w *Wallet) HasPin() bool {
	return w.PinHash != nil && *w.PinHash != ""
}

// TxType classifies ledger entries. Credits carry positive amounts, withdraw
// carries a negative amount, withdraw_reject is a zero-amount audit marker,
// system_adjust may go either way.
type TxType string

const (
	TxBookingIncome  TxType = "booking_income"
	TxRefund         TxType = "refund"
	TxWithdraw       TxType = "withdraw"
	TxWithdrawReject TxType = "withdraw_reject"
	TxSystemAdjust   TxType = "system_adjust"
)

// Transaction is one immutable ledger entry. Seq is monotonic per wallet and
// doubles as the pagination cursor. Replaying a wallet's entries in Seq order
// from zero reproduces its current balance.
type Transaction struct {
	ID           string    `json:"id"`
	Seq          int64     `json:"seq"`
	WalletID     string    `json:"wallet_id"`
	Type         TxType    `json:"type"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusPaid     RequestStatus = "paid"
)

// WithdrawRequest holds one reservation of Amount on its wallet until it
// leaves pending. Paid and rejected are terminal.
type WithdrawRequest struct {
	ID          string        `json:"id"`
	WalletID    string        `json:"wallet_id"`
	Amount      int64         `json:"amount"`
	BankInfoID  string        `json:"bank_info_id"`
	Status      RequestStatus `json:"status"`
	Note        string        `json:"note"`
	RequestedAt time.Time     `json:"requested_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}
