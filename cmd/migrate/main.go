package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/store"
	"github.com/ignite/commerce-ingest/migrations"

	_ "github.com/lib/pq"
)

// Usage: migrate [--list] [dir]
// Without dir the embedded migrations are applied.
func main() {
	cfg, err := config.LoadFromEnv(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dir := ""
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			dir = a
		}
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	if listOnly {
		listTables(db, cfg.Tables)
		return
	}

	var files []migrations.File
	if dir == "" {
		files, err = migrations.All()
	} else {
		files, err = migrations.Load(os.DirFS(dir))
	}
	if err != nil {
		log.Fatalf("read migrations: %v", err)
	}

	var okCount, errCount int
	for _, f := range files {
		fmt.Printf("  %s ... ", f.Name)

		tx, err := db.Begin()
		if err != nil {
			fmt.Printf("BEGIN ERROR: %v\n", err)
			errCount++
			continue
		}
		if _, err := tx.Exec(f.SQL); err != nil {
			tx.Rollback()
			fmt.Printf("ERROR: %v\n", err)
			errCount++
		} else if err := tx.Commit(); err != nil {
			fmt.Printf("COMMIT ERROR: %v\n", err)
			errCount++
		} else {
			fmt.Println("OK")
			okCount++
		}
	}
	log.Printf("Done: %d OK, %d errors", okCount, errCount)
	if errCount > 0 {
		os.Exit(1)
	}
	log.Println("Migrations complete")
}

// listTables prints the row count of every configured table.
func listTables(db *sql.DB, t config.TablesConfig) {
	names := []string{t.AE, t.AENewProducts, t.Amazon, t.Ozon, t.Facts, t.MetaAds, t.IndependentAds, t.ManagedStats}
	for _, name := range names {
		name = store.NormalizeTableName(name)
		var exists bool
		if err := db.QueryRow(`SELECT to_regclass($1) IS NOT NULL`, "public."+name).Scan(&exists); err != nil {
			log.Fatal(err)
		}
		if !exists {
			fmt.Printf("  %-34s missing\n", name)
			continue
		}
		var n int64
		if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, store.QuoteTable(name))).Scan(&n); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %-34s %d rows\n", name, n)
	}
}
