package wallet

import "context"

// Tx is the per-wallet serialized mutation scope. The wallet returned by
// Wallet() is the exclusively held row; callers mutate its fields directly
// and the store persists them when the scope commits.
type Tx interface {
	Wallet() *Wallet
	// Append writes one ledger entry, assigning its Seq.
	Append(txn *Transaction) error
	InsertRequest(r *WithdrawRequest) error
	UpdateRequest(r *WithdrawRequest) error
}

// Store persists wallets, the ledger, and withdraw requests. Implementations
// must serialize Update scopes per wallet: two concurrent updates of the same
// wallet never interleave, updates of different wallets proceed independently.
type Store interface {
	// Update runs fn with exclusive access to the wallet, creating the row
	// implicitly on first reference. All mutations made through the Tx commit
	// together when fn returns nil (or a keepState-wrapped error) and are
	// discarded otherwise.
	Update(ctx context.Context, walletID string, fn func(tx Tx) error) error

	// UpdateByRequest resolves the request's wallet, locks it, and passes the
	// request re-read under that lock. Returns ErrRequestNotFound if no such
	// request exists.
	UpdateByRequest(ctx context.Context, requestID string, fn func(tx Tx, req *WithdrawRequest) error) error

	// GetWallet never creates a row; an unreferenced wallet reads as empty.
	GetWallet(ctx context.Context, walletID string) (*Wallet, error)

	// ListTransactions returns entries most recent first. beforeSeq == 0 means
	// start from the newest; otherwise only entries with Seq < beforeSeq are
	// returned, which makes the listing restartable.
	ListTransactions(ctx context.Context, walletID string, limit int, beforeSeq int64) ([]Transaction, error)

	// ListRequests returns the wallet's requests most recent first; status ==
	// "" returns all of them.
	ListRequests(ctx context.Context, walletID string, status RequestStatus) ([]WithdrawRequest, error)

	// ListPendingRequests returns pending requests across all wallets, oldest
	// first, for the back-office queue.
	ListPendingRequests(ctx context.Context) ([]WithdrawRequest, error)

	// ListWallets returns every wallet row, newest first.
	ListWallets(ctx context.Context) ([]Wallet, error)
}
