// Package bankinfo is the bank-account directory the withdrawal workflow
// consults before reserving funds. The service runs a local directory, but
// the workflow only sees the Directory interface so a remote one can take
// its place.
package bankinfo

import (
	"context"
	"time"
)

type Account struct {
	ID                string    `json:"bank_info_id"`
	OwnerID           string    `json:"owner_id"`
	BankName          string    `json:"bank_name"`
	AccountNumber     string    `json:"account_number"`
	AccountHolderName string    `json:"account_holder_name"`
	CreatedAt         time.Time `json:"created_at"`
}

type Directory interface {
	// ListByOwner returns every bank account registered for the owner.
	ListByOwner(ctx context.Context, ownerID string) ([]Account, error)
	Register(ctx context.Context, acct *Account) error
}

// OwnsAccount reports whether bankInfoID belongs to ownerID.
func OwnsAccount(ctx context.Context, d Directory, ownerID, bankInfoID string) (bool, error) {
	accts, err := d.ListByOwner(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, a := range accts {
		if a.ID == bankInfoID {
			return true, nil
		}
	}
	return false, nil
}
