package db

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and makes sure the schema is in place.
func Init(dsn string) {
	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureUsersTable()
	ensureWalletTables()
	ensureWithdrawRequestsTable()
	ensureBankAccountsTable()
}

func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT UNIQUE NOT NULL,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`)
	if err != nil {
		log.Printf("failed to ensure users table: %v", err)
		return
	}
	_, _ = Conn.Exec(ctx, `ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
	_, _ = Conn.Exec(ctx, `ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('user','admin'))`)
}

// ensureWalletTables creates the wallets row store and the append-only ledger.
func ensureWalletTables() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS wallets (
            owner_id TEXT PRIMARY KEY,
            balance BIGINT NOT NULL DEFAULT 0,
            locked_balance BIGINT NOT NULL DEFAULT 0,
            pin_hash TEXT,
            failed_pin_attempts INT NOT NULL DEFAULT 0,
            locked_until TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT wallets_locked_within_balance
                CHECK (locked_balance >= 0 AND locked_balance <= balance)
        )`)
	if err != nil {
		log.Printf("failed to ensure wallets table: %v", err)
	}

	_, err = Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS wallet_transactions (
            id TEXT PRIMARY KEY,
            seq BIGSERIAL,
            wallet_id TEXT NOT NULL REFERENCES wallets(owner_id),
            type TEXT NOT NULL,
            amount BIGINT NOT NULL,
            balance_after BIGINT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`)
	if err != nil {
		log.Printf("failed to ensure wallet_transactions table: %v", err)
		return
	}
	_, _ = Conn.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS wallet_transactions_wallet_seq
            ON wallet_transactions (wallet_id, seq DESC)`)
}

func ensureWithdrawRequestsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS withdraw_requests (
            id TEXT PRIMARY KEY,
            wallet_id TEXT NOT NULL REFERENCES wallets(owner_id),
            amount BIGINT NOT NULL,
            bank_info_id TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            note TEXT NOT NULL DEFAULT '',
            requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            resolved_at TIMESTAMPTZ
        )`)
	if err != nil {
		log.Printf("failed to ensure withdraw_requests table: %v", err)
		return
	}
	_, _ = Conn.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS withdraw_requests_wallet
            ON withdraw_requests (wallet_id, requested_at DESC)`)
	_, _ = Conn.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS withdraw_requests_pending
            ON withdraw_requests (status) WHERE status = 'pending'`)
}

func ensureBankAccountsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS bank_accounts (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            bank_name TEXT NOT NULL,
            account_number TEXT NOT NULL,
            account_holder_name TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`)
	if err != nil {
		log.Printf("failed to ensure bank_accounts table: %v", err)
		return
	}
	_, _ = Conn.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS bank_accounts_owner ON bank_accounts (owner_id)`)
}
