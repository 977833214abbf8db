// migrate applies every .sql file under migrations/ in lexical order.
// Files are idempotent (CREATE ... IF NOT EXISTS), so re-running is safe.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"lotledger/internal/config"
	"lotledger/internal/db"
)

func main() {
	_ = godotenv.Load()
	log := config.NewLogger()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("no migration files found under migrations/")
	}
	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("read %s: %v", file, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			log.Fatalf("apply %s: %v", file, err)
		}
		log.Infof("applied %s", file)
	}
	log.Info("migrations complete")
}
