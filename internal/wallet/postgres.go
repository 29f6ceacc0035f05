package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on a pgx pool. Per-wallet serialization comes from
// SELECT ... FOR UPDATE on the wallet row inside a single database
// transaction, so an Update scope commits or rolls back as a unit.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

type pgTx struct {
	tx pgx.Tx
	w  Wallet
}

func (t *pgTx) Wallet() *Wallet { return &t.w }

func (t *pgTx) Append(txn *Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	return t.tx.QueryRow(context.Background(),
		`INSERT INTO wallet_transactions (id, wallet_id, type, amount, balance_after, description, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING seq`,
		txn.ID, txn.WalletID, txn.Type, txn.Amount, txn.BalanceAfter, txn.Description, txn.CreatedAt,
	).Scan(&txn.Seq)
}

func (t *pgTx) InsertRequest(r *WithdrawRequest) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := t.tx.Exec(context.Background(),
		`INSERT INTO withdraw_requests (id, wallet_id, amount, bank_info_id, status, note, requested_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.WalletID, r.Amount, r.BankInfoID, r.Status, r.Note, r.RequestedAt)
	return err
}

func (t *pgTx) UpdateRequest(r *WithdrawRequest) error {
	_, err := t.tx.Exec(context.Background(),
		`UPDATE withdraw_requests SET status=$1, note=$2, resolved_at=$3 WHERE id=$4`,
		r.Status, r.Note, r.ResolvedAt, r.ID)
	return err
}

func (s *PgStore) Update(ctx context.Context, walletID string, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Create the row on first reference, then take the row lock.
	if _, err := tx.Exec(ctx,
		`INSERT INTO wallets (owner_id) VALUES ($1) ON CONFLICT (owner_id) DO NOTHING`,
		walletID); err != nil {
		return err
	}

	scope := &pgTx{tx: tx}
	if err := scanWallet(tx.QueryRow(ctx,
		`SELECT owner_id, balance, locked_balance, pin_hash, failed_pin_attempts, locked_until, created_at
         FROM wallets WHERE owner_id=$1 FOR UPDATE`, walletID), &scope.w); err != nil {
		return err
	}

	fnErr := fn(scope)
	if !shouldCommit(fnErr) {
		return fnErr
	}

	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance=$1, locked_balance=$2, pin_hash=$3, failed_pin_attempts=$4, locked_until=$5
         WHERE owner_id=$6`,
		scope.w.Balance, scope.w.LockedBalance, scope.w.PinHash,
		scope.w.FailedPinAttempts, scope.w.LockedUntil, walletID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return fnErr
}

func (s *PgStore) UpdateByRequest(ctx context.Context, requestID string, fn func(tx Tx, req *WithdrawRequest) error) error {
	var walletID string
	err := s.pool.QueryRow(ctx,
		`SELECT wallet_id FROM withdraw_requests WHERE id=$1`, requestID).Scan(&walletID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}

	return s.Update(ctx, walletID, func(tx Tx) error {
		scope := tx.(*pgTx)
		var req WithdrawRequest
		// Re-read under the wallet lock; a concurrent resolve may have won.
		if err := scanRequest(scope.tx.QueryRow(ctx,
			`SELECT id, wallet_id, amount, bank_info_id, status, note, requested_at, resolved_at
             FROM withdraw_requests WHERE id=$1`, requestID), &req); err != nil {
			return err
		}
		return fn(tx, &req)
	})
}

func (s *PgStore) GetWallet(ctx context.Context, walletID string) (*Wallet, error) {
	var w Wallet
	err := scanWallet(s.pool.QueryRow(ctx,
		`SELECT owner_id, balance, locked_balance, pin_hash, failed_pin_attempts, locked_until, created_at
         FROM wallets WHERE owner_id=$1`, walletID), &w)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Wallet{OwnerID: walletID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PgStore) ListTransactions(ctx context.Context, walletID string, limit int, beforeSeq int64) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows pgx.Rows
	var err error
	if beforeSeq > 0 {
		rows, err = s.pool.Query(ctx,
			`SELECT id, seq, wallet_id, type, amount, balance_after, description, created_at
             FROM wallet_transactions WHERE wallet_id=$1 AND seq < $2
             ORDER BY seq DESC LIMIT $3`, walletID, beforeSeq, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, seq, wallet_id, type, amount, balance_after, description, created_at
             FROM wallet_transactions WHERE wallet_id=$1
             ORDER BY seq DESC LIMIT $2`, walletID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Seq, &t.WalletID, &t.Type, &t.Amount,
			&t.BalanceAfter, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *PgStore) ListRequests(ctx context.Context, walletID string, status RequestStatus) ([]WithdrawRequest, error) {
	var rows pgx.Rows
	var err error
	if status != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, wallet_id, amount, bank_info_id, status, note, requested_at, resolved_at
             FROM withdraw_requests WHERE wallet_id=$1 AND status=$2
             ORDER BY requested_at DESC`, walletID, status)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, wallet_id, amount, bank_info_id, status, note, requested_at, resolved_at
             FROM withdraw_requests WHERE wallet_id=$1
             ORDER BY requested_at DESC`, walletID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PgStore) ListPendingRequests(ctx context.Context) ([]WithdrawRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, wallet_id, amount, bank_info_id, status, note, requested_at, resolved_at
         FROM withdraw_requests WHERE status='pending'
         ORDER BY requested_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PgStore) ListWallets(ctx context.Context) ([]Wallet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT owner_id, balance, locked_balance, pin_hash, failed_pin_attempts, locked_until, created_at
         FROM wallets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		var w Wallet
		if err := rows.Scan(&w.OwnerID, &w.Balance, &w.LockedBalance, &w.PinHash,
			&w.FailedPinAttempts, &w.LockedUntil, &w.CreatedAt); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func scanWallet(row pgx.Row, w *Wallet) error {
	return row.Scan(&w.OwnerID, &w.Balance, &w.LockedBalance, &w.PinHash,
		&w.FailedPinAttempts, &w.LockedUntil, &w.CreatedAt)
}

func scanRequest(row pgx.Row, r *WithdrawRequest) error {
	return row.Scan(&r.ID, &r.WalletID, &r.Amount, &r.BankInfoID, &r.Status,
		&r.Note, &r.RequestedAt, &r.ResolvedAt)
}

func collectRequests(rows pgx.Rows) ([]WithdrawRequest, error) {
	var reqs []WithdrawRequest
	for rows.Next() {
		var r WithdrawRequest
		if err := rows.Scan(&r.ID, &r.WalletID, &r.Amount, &r.BankInfoID, &r.Status,
			&r.Note, &r.RequestedAt, &r.ResolvedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}
