package postgres

import "testing"

func TestFormatDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "sentry")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("DB_NAME", "focus")
	t.Setenv("DB_SSLMODE", "require")

	want := "host=db.internal port=6543 user=sentry password=hunter2 dbname=focus sslmode=require"
	if got := FormatDSN(); got != want {
		t.Errorf("FormatDSN() = %q, want %q", got, want)
	}
}

func TestFormatDSN_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE"} {
		t.Setenv(key, "")
	}

	want := "host=localhost port=5432 user=postgres password= dbname=focus_sentry sslmode=disable"
	if got := FormatDSN(); got != want {
		t.Errorf("FormatDSN() = %q, want %q", got, want)
	}
}
