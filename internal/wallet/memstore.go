package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-process Store used by the test suite and by
// WALLET_BACKEND=memory. Each wallet has its own mutex, so updates on
// different wallets run concurrently while updates on the same wallet
// serialize exactly like the row lock in the Postgres store. A scope works on
// copies and swaps them in only at commit, which gives Update its
// all-or-nothing behavior.
type MemStore struct {
	mu       sync.Mutex
	wallets  map[string]*memWallet
	txns     map[string][]Transaction
	requests map[string]WithdrawRequest
	order    map[string][]string // request ids per wallet, oldest first
	seq      int64
}

type memWallet struct {
	mu sync.Mutex
	w  Wallet
}

func NewMemStore() *MemStore {
	return &MemStore{
		wallets:  make(map[string]*memWallet),
		txns:     make(map[string][]Transaction),
		requests: make(map[string]WithdrawRequest),
		order:    make(map[string][]string),
	}
}

func (s *MemStore) wallet(walletID string) *memWallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	mw, ok := s.wallets[walletID]
	if !ok {
		mw = &memWallet{w: Wallet{OwnerID: walletID, CreatedAt: time.Now()}}
		s.wallets[walletID] = mw
	}
	return mw
}

type memTx struct {
	store    *MemStore
	w        Wallet
	appended []Transaction
	inserted []WithdrawRequest
	updated  []WithdrawRequest
}

func (t *memTx) Wallet() *Wallet { return &t.w }

func (t *memTx) Append(txn *Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	t.store.mu.Lock()
	t.store.seq++
	txn.Seq = t.store.seq
	t.store.mu.Unlock()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	t.appended = append(t.appended, *txn)
	return nil
}

func (t *memTx) InsertRequest(r *WithdrawRequest) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	t.inserted = append(t.inserted, *r)
	return nil
}

func (t *memTx) UpdateRequest(r *WithdrawRequest) error {
	t.updated = append(t.updated, *r)
	return nil
}

func (s *MemStore) Update(ctx context.Context, walletID string, fn func(tx Tx) error) error {
	mw := s.wallet(walletID)
	mw.mu.Lock()
	defer mw.mu.Unlock()

	tx := &memTx{store: s, w: mw.w}
	err := fn(tx)
	if !shouldCommit(err) {
		return err
	}

	s.mu.Lock()
	mw.w = tx.w
	s.txns[walletID] = append(s.txns[walletID], tx.appended...)
	for _, r := range tx.inserted {
		s.requests[r.ID] = r
		s.order[walletID] = append(s.order[walletID], r.ID)
	}
	for _, r := range tx.updated {
		s.requests[r.ID] = r
	}
	s.mu.Unlock()
	return err
}

func (s *MemStore) UpdateByRequest(ctx context.Context, requestID string, fn func(tx Tx, req *WithdrawRequest) error) error {
	s.mu.Lock()
	r, ok := s.requests[requestID]
	s.mu.Unlock()
	if !ok {
		return ErrRequestNotFound
	}

	return s.Update(ctx, r.WalletID, func(tx Tx) error {
		// Re-read under the wallet lock; a concurrent resolve may have won.
		s.mu.Lock()
		req := s.requests[requestID]
		s.mu.Unlock()
		return fn(tx, &req)
	})
}

func (s *MemStore) GetWallet(ctx context.Context, walletID string) (*Wallet, error) {
	s.mu.Lock()
	mw, ok := s.wallets[walletID]
	s.mu.Unlock()
	if !ok {
		return &Wallet{OwnerID: walletID}, nil
	}
	mw.mu.Lock()
	w := mw.w
	mw.mu.Unlock()
	return &w, nil
}

func (s *MemStore) ListTransactions(ctx context.Context, walletID string, limit int, beforeSeq int64) ([]Transaction, error) {
	s.mu.Lock()
	all := s.txns[walletID]
	out := make([]Transaction, 0, limit)
	for i := len(all) - 1; i >= 0; i-- {
		if beforeSeq > 0 && all[i].Seq >= beforeSeq {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	s.mu.Unlock()
	return out, nil
}

func (s *MemStore) ListRequests(ctx context.Context, walletID string, status RequestStatus) ([]WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.order[walletID]
	out := make([]WithdrawRequest, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		r := s.requests[ids[i]]
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MemStore) ListPendingRequests(ctx context.Context) ([]WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []WithdrawRequest
	for _, r := range s.requests {
		if r.Status == StatusPending {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *MemStore) ListWallets(ctx context.Context) ([]Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Wallet, 0, len(s.wallets))
	for _, mw := range s.wallets {
		out = append(out, mw.w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
