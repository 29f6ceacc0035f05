package bankinfo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) ListByOwner(ctx context.Context, ownerID string) ([]Account, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, owner_id, bank_name, account_number, account_holder_name, created_at
         FROM bank_accounts WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.BankName, &a.AccountNumber,
			&a.AccountHolderName, &a.CreatedAt); err != nil {
			return nil, err
		}
		accts = append(accts, a)
	}
	return accts, rows.Err()
}

func (d *PgDirectory) Register(ctx context.Context, acct *Account) error {
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now()
	}
	_, err := d.pool.Exec(ctx,
		`INSERT INTO bank_accounts (id, owner_id, bank_name, account_number, account_holder_name, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		acct.ID, acct.OwnerID, acct.BankName, acct.AccountNumber, acct.AccountHolderName, acct.CreatedAt)
	return err
}
