// seed-admin bootstraps a fresh database: the fixed measurement units and
// one super-admin account. Re-running is a no-op when the admin exists.
//
// Usage: ADMIN_USERNAME=admin ADMIN_PASSWORD=secret go run ./cmd/seed-admin
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"lotledger/internal/config"
	"lotledger/internal/db"
)

func main() {
	_ = godotenv.Load()
	log := config.NewLogger()

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("ADMIN_USERNAME and ADMIN_PASSWORD must be set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	for _, unit := range []struct{ name, code string }{
		{"Bag", "BAG"},
		{"Quintal", "QTL"},
	} {
		_, err := pool.Exec(ctx, `
			INSERT INTO units (name, code)
			VALUES ($1, $2)
			ON CONFLICT (code) DO NOTHING`,
			unit.name, unit.code,
		)
		if err != nil {
			log.Fatalf("seed unit %s: %v", unit.name, err)
		}
		log.Infof("unit %s ready", unit.name)
	}

	var exists bool
	err = pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)", username,
	).Scan(&exists)
	if err != nil {
		log.Fatalf("check admin: %v", err)
	}
	if exists {
		log.Infof("super admin %q already exists", username)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (location_id, username, password_hash, role)
		VALUES (NULL, $1, $2, 'super_admin')`,
		username, string(hash),
	)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Infof("super admin %q created", username)
}
