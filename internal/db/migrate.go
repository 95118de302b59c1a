package db

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS email_summaries (
		id BIGSERIAL PRIMARY KEY,
		email_content TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		action_items TEXT NOT NULL DEFAULT '',
		deadlines TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		sentiment TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		analysis_json JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS email_summaries_created_at_idx ON email_summaries (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS llm_usage_logs (
		id BIGSERIAL PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		feature TEXT NOT NULL DEFAULT '',
		input_tokens INT NOT NULL DEFAULT 0,
		output_tokens INT NOT NULL DEFAULT 0,
		total_tokens INT NOT NULL DEFAULT 0,
		latency_ms BIGINT NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables the service needs. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for i, statement := range migrations {
		if _, err := s.Pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
