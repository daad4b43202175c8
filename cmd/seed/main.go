package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Kamigear/teens-points/internal/config"
	pg "github.com/Kamigear/teens-points/internal/infra/db/postgres"
	"github.com/Kamigear/teens-points/internal/infra/logging"
	"github.com/Kamigear/teens-points/internal/usecase"
)

// schema is idempotent: every statement is IF NOT EXISTS, so seed can run
// against a live database without clobbering anything.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id            TEXT PRIMARY KEY,
		display_name  TEXT NOT NULL,
		balance       INTEGER NOT NULL DEFAULT 0,
		total_claims  INTEGER NOT NULL DEFAULT 0,
		last_claim_at TIMESTAMPTZ,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_members_balance ON members (balance DESC);`,

	`CREATE TABLE IF NOT EXISTS rotating_tokens (
		id             TEXT PRIMARY KEY,
		code           TEXT NOT NULL,
		issued_at      TIMESTAMPTZ NOT NULL,
		expires_at     TIMESTAMPTZ NOT NULL,
		week_id        TEXT NOT NULL,
		points_default INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_rotating_tokens_code ON rotating_tokens (code, expires_at DESC);`,

	`CREATE TABLE IF NOT EXISTS event_codes (
		id         TEXT PRIMARY KEY,
		code       TEXT NOT NULL UNIQUE,
		event_name TEXT NOT NULL DEFAULT '',
		points     INTEGER NOT NULL,
		claim_type TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'ACTIVE',
		claimed_by TEXT,
		claimed_at TIMESTAMPTZ,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id             TEXT PRIMARY KEY,
		member_id      TEXT NOT NULL REFERENCES members (id),
		description    TEXT NOT NULL,
		points         INTEGER NOT NULL,
		status         TEXT NOT NULL DEFAULT 'COMPLETED',
		source_code_id TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_member ON ledger_entries (member_id, created_at DESC);`,

	`CREATE TABLE IF NOT EXISTS weekly_claims (
		id         TEXT PRIMARY KEY,
		member_id  TEXT NOT NULL REFERENCES members (id),
		week_id    TEXT NOT NULL,
		code       TEXT NOT NULL,
		points     INTEGER NOT NULL,
		claimed_at TIMESTAMPTZ NOT NULL,
		UNIQUE (member_id, week_id)
	);`,

	`CREATE TABLE IF NOT EXISTS attendance_settings (
		id                 INTEGER PRIMARY KEY,
		slot1_time         TEXT NOT NULL,
		slot1_points       INTEGER NOT NULL,
		slot2_time         TEXT NOT NULL,
		slot2_points       INTEGER NOT NULL,
		default_points     INTEGER NOT NULL,
		token_interval_sec INTEGER NOT NULL,
		token_validity_min INTEGER NOT NULL
	);`,
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	demo := flag.Bool("demo", false, "also create demo members and a sample event code")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("schema: %v", err)
		}
	}
	fmt.Println("schema applied")

	if !*demo {
		return
	}

	memberRepo := pg.NewMemberRepo(pool)
	memberUC := usecase.NewMemberUseCase(memberRepo, logger)
	codeUC := usecase.NewCodeUseCase(pg.NewEventCodeRepo(pool), logger)

	demoMembers := []struct{ ID, Name string }{
		{"demo-admin", "Kak Pembina"},
		{"demo-member-1", "Andi"},
		{"demo-member-2", "Sari"},
	}
	for _, m := range demoMembers {
		if _, err := memberUC.Register(ctx, m.ID, m.Name); err != nil {
			log.Fatalf("seed member %s: %v", m.ID, err)
		}
		fmt.Printf("  member %s (%s)\n", m.ID, m.Name)
	}
	if _, err := pool.Exec(ctx, `UPDATE members SET is_admin = TRUE WHERE id = 'demo-admin';`); err != nil {
		log.Fatalf("promote admin: %v", err)
	}

	code, err := codeUC.Create(ctx, "demo-admin", "Retreat 2026", 15, "MULTI", "RETREAT26")
	if err != nil {
		log.Printf("seed event code: %v (already present?)", err)
	} else {
		fmt.Printf("  event code %s (%d pts)\n", code.Code, code.Points)
	}
}
