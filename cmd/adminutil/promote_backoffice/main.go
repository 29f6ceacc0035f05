package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/lamnguyen-dev/walletcore/internal/config"
	"github.com/lamnguyen-dev/walletcore/internal/db"
)

// Grants the back-office (admin) role to an existing user so they can work
// the withdrawal resolution queue.
func main() {
	email := flag.String("email", "", "Email of the user to promote to back-office admin")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_backoffice/main.go -email ops@example.com")
	}

	_ = godotenv.Load()
	db.Init(config.Load().DSN())

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET role = 'admin' WHERE email = $1`, *email)
	if err != nil {
		log.Fatalf("failed to promote user: %v", err)
	}
	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with email: %s", *email)
	}

	fmt.Printf("User %s promoted to back-office admin.\n", *email)
}
