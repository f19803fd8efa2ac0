package store

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/immersive-lab/lab-api/internal/config"
)

// Open connects to Postgres through the pgx stdlib driver and applies the
// configured pool limits.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// EnsureSchema creates the tables this service owns. The unique index on
// attendance (member_id, work_date) is load-bearing: it is what makes
// concurrent first check-ins collapse into a single row.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS members (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			login_id TEXT UNIQUE,
			password TEXT,
			role TEXT NOT NULL DEFAULT 'MEMBER',
			admin BOOLEAN NOT NULL DEFAULT FALSE,
			email TEXT,
			phone TEXT,
			student_id TEXT,
			research_area TEXT,
			bio TEXT,
			degree TEXT,
			photo_url TEXT,
			sort_order INTEGER NOT NULL DEFAULT 1000
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id BIGSERIAL PRIMARY KEY,
			member_id BIGINT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			work_date DATE NOT NULL,
			check_in_at TIMESTAMPTZ,
			check_out_at TIMESTAMPTZ,
			UNIQUE (member_id, work_date)
		)`,
		`CREATE TABLE IF NOT EXISTS notices (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			author_id BIGINT REFERENCES members(id) ON DELETE SET NULL,
			category TEXT NOT NULL DEFAULT 'NOTICE',
			pinned BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS notice_attachments (
			id BIGSERIAL PRIMARY KEY,
			notice_id BIGINT NOT NULL REFERENCES notices(id) ON DELETE CASCADE,
			stored_path TEXT NOT NULL,
			original_name TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			file_key TEXT UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			summary TEXT,
			status TEXT NOT NULL DEFAULT 'ONGOING',
			members TEXT,
			created_by BIGINT REFERENCES members(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			start_at TIMESTAMPTZ NOT NULL,
			end_at TIMESTAMPTZ NOT NULL,
			created_by BIGINT REFERENCES members(id) ON DELETE SET NULL,
			category TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS lab_info (
			id BIGSERIAL PRIMARY KEY,
			lab_name TEXT NOT NULL,
			description TEXT NOT NULL,
			research_areas TEXT,
			facilities TEXT,
			location TEXT NOT NULL DEFAULT '',
			contact_email TEXT,
			contact_phone TEXT,
			director_id BIGINT REFERENCES members(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
