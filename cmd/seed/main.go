// Package main provides a CLI tool for creating the schema and seeding
// initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/core/id"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock_items (
		id           UUID PRIMARY KEY,
		product      TEXT NOT NULL,
		size         TEXT NOT NULL,
		quantity     INTEGER NOT NULL DEFAULT 0,
		price        NUMERIC(14,2) NOT NULL DEFAULT 0,
		shop         TEXT NOT NULL,
		version      INTEGER NOT NULL DEFAULT 1,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_stock_items_product_size_shop
		ON stock_items (product, size, shop)`,
	`CREATE INDEX IF NOT EXISTS ix_stock_items_shop ON stock_items (shop)`,

	`CREATE TABLE IF NOT EXISTS bill_history (
		id                     UUID PRIMARY KEY,
		shop                   TEXT NOT NULL,
		pdf_date               TIMESTAMPTZ NOT NULL,
		total_sale             NUMERIC(14,2) NOT NULL DEFAULT 0,
		upi_payment            NUMERIC(14,2) NOT NULL DEFAULT 0,
		discount               NUMERIC(14,2) NOT NULL DEFAULT 0,
		breakage_cash          NUMERIC(14,2) NOT NULL DEFAULT 0,
		canteen_cash           NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_desi_sale        NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_beer_sale        NUMERIC(14,2) NOT NULL DEFAULT 0,
		salary                 NUMERIC(14,2) NOT NULL DEFAULT 0,
		rent                   NUMERIC(14,2) NOT NULL DEFAULT 0,
		rate_diff              NUMERIC(14,2) NOT NULL DEFAULT 0,
		transportation         NUMERIC(14,2) NOT NULL DEFAULT 0,
		total_payment_received NUMERIC(14,2) NOT NULL DEFAULT 0,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_bill_history_pdf_date ON bill_history (pdf_date)`,

	`CREATE TABLE IF NOT EXISTS bill_movements (
		bill_id       UUID NOT NULL REFERENCES bill_history(id) ON DELETE CASCADE,
		line_no       INTEGER NOT NULL,
		product       TEXT NOT NULL,
		size          TEXT NOT NULL,
		last_quantity INTEGER NOT NULL,
		new_quantity  INTEGER NOT NULL,
		price         NUMERIC(14,2) NOT NULL,
		line_total    NUMERIC(14,2) NOT NULL,
		PRIMARY KEY (bill_id, line_no)
	)`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		id               UUID PRIMARY KEY,
		user_name        TEXT NOT NULL,
		detail           TEXT NOT NULL,
		event_category   TEXT NOT NULL,
		route            TEXT NOT NULL,
		additional_info  JSONB,
		info_compressed  BYTEA,
		compression_algo TEXT NOT NULL DEFAULT 'none',
		timestamp        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_audit_events_category_ts
		ON audit_events (event_category, timestamp DESC)`,

	`CREATE TABLE IF NOT EXISTS ledger_records (
		id             UUID PRIMARY KEY,
		record_name    TEXT NOT NULL,
		shop_name      TEXT NOT NULL,
		message        TEXT NOT NULL,
		amount         NUMERIC(14,2) NOT NULL DEFAULT 0,
		date           TIMESTAMPTZ NOT NULL,
		payment_method TEXT NOT NULL,
		account_type   TEXT NOT NULL DEFAULT 'cash',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_ledger_records_date ON ledger_records (date)`,

	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS sys_idempotency (
		idempotency_key       TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		operation             TEXT NOT NULL,
		status                TEXT NOT NULL,
		request_hash          TEXT NOT NULL,
		response              BYTEA,
		response_status       INTEGER NOT NULL DEFAULT 0,
		response_content_type TEXT NOT NULL DEFAULT '',
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL,
		expires_at            TIMESTAMPTZ NOT NULL
	)`,
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := applySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoStock(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo stock", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func applySchema(ctx context.Context, pool *postgres.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@shopledger.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, 'Administrator', $2, $3, $4, $5)
	`, userID, adminEmail, string(passwordHash), appctx.RoleAdmin, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return nil
}

func seedDemoStock(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	demo := []struct {
		product  string
		size     string
		quantity int
		price    string
		shop     string
	}{
		{"Desi Santra", "180ml", 120, "80.00", "shop1"},
		{"Desi Santra", "90ml", 200, "45.00", "shop1"},
		{"Strong Beer", "650ml", 60, "160.00", "shop1"},
		{"Mild Beer", "650ml", 48, "140.00", "shop2"},
		{"Desi Masaledar", "180ml", 90, "85.00", "shop2"},
	}

	for _, d := range demo {
		_, err := pool.Exec(ctx, `
			INSERT INTO stock_items (id, product, size, quantity, price, shop, version, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
			ON CONFLICT (product, size, shop) DO NOTHING
		`, id.New(), d.product, d.size, d.quantity, d.price, d.shop, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("insert demo stock: %w", err)
		}
	}

	log.Infow("demo stock seeded", "items", len(demo))
	return nil
}
