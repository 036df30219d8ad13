package postgres

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS focus_sessions (
	id                 BIGSERIAL PRIMARY KEY,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	duration_minutes   INTEGER NOT NULL,
	email              TEXT,
	phone              TEXT,
	alert_threshold_ms INTEGER NOT NULL,
	alert_mode         TEXT NOT NULL,
	send_email         BOOLEAN NOT NULL DEFAULT FALSE,
	send_sms           BOOLEAN NOT NULL DEFAULT FALSE,
	ended_at           TIMESTAMPTZ,
	total_seconds      INTEGER,
	focused_seconds    INTEGER,
	unfocused_seconds  INTEGER,
	breaks_count       INTEGER,
	focus_percent      INTEGER,
	ended_early        BOOLEAN
);

CREATE INDEX IF NOT EXISTS idx_focus_sessions_created_at ON focus_sessions (created_at DESC);
`

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// FormatDSN builds a lib/pq connection string from the DB_* variables.
func FormatDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getenv("DB_NAME", "focus_sentry"),
		getenv("DB_SSLMODE", "disable"),
	)
}

func New() (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"host": getenv("DB_HOST", "localhost"),
		"name": getenv("DB_NAME", "focus_sentry"),
	}).Info("Connected to database")

	return db, nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate focus_sessions: %w", err)
	}
	return nil
}
