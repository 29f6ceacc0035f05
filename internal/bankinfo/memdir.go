package bankinfo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemDirectory backs tests and the in-memory dev mode.
type MemDirectory struct {
	mu    sync.Mutex
	accts map[string][]Account // by owner, oldest first
}

func NewMemDirectory() *MemDirectory {
	return &MemDirectory{accts: make(map[string][]Account)}
}

func (d *MemDirectory) ListByOwner(ctx context.Context, ownerID string) ([]Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	accts := d.accts[ownerID]
	out := make([]Account, 0, len(accts))
	for i := len(accts) - 1; i >= 0; i-- {
		out = append(out, accts[i])
	}
	return out, nil
}

func (d *MemDirectory) Register(ctx context.Context, acct *Account) error {
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now()
	}
	d.mu.Lock()
	d.accts[acct.OwnerID] = append(d.accts[acct.OwnerID], *acct)
	d.mu.Unlock()
	return nil
}
