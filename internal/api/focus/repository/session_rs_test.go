package focusRepository

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
)

func TestFocusSessionDB_ToEntity(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ended := created.Add(25 * time.Minute)

	t.Run("open session", func(t *testing.T) {
		got := FocusSessionDB{
			ID:               9,
			CreatedAt:        created,
			DurationMinutes:  25,
			AlertThresholdMs: 2500,
			AlertMode:        "popup",
		}.toEntity()

		if got.ID != 9 || got.DurationMinutes != 25 || got.AlertThresholdMs != 2500 {
			t.Errorf("unexpected entity %+v", got)
		}
		if got.Email != "" || got.Phone != "" {
			t.Errorf("NULL contacts should map to empty strings, got %q %q", got.Email, got.Phone)
		}
		if got.Completed() || got.TotalSeconds != nil || got.EndedEarly != nil {
			t.Errorf("open session should have no results, got %+v", got)
		}
	})

	t.Run("completed session", func(t *testing.T) {
		got := FocusSessionDB{
			ID:             9,
			CreatedAt:      created,
			Email:          sql.NullString{String: "user@example.com", Valid: true},
			EndedAt:        sql.NullTime{Time: ended, Valid: true},
			TotalSeconds:   sql.NullInt32{Int32: 300, Valid: true},
			FocusedSeconds: sql.NullInt32{Int32: 0, Valid: true},
			EndedEarly:     sql.NullBool{Bool: false, Valid: true},
		}.toEntity()

		if got.Email != "user@example.com" {
			t.Errorf("Email = %q", got.Email)
		}
		if !got.Completed() || !got.EndedAt.Equal(ended) {
			t.Errorf("EndedAt = %v, want %v", got.EndedAt, ended)
		}
		if got.TotalSeconds == nil || *got.TotalSeconds != 300 {
			t.Errorf("TotalSeconds = %v", got.TotalSeconds)
		}
		if got.FocusedSeconds == nil || *got.FocusedSeconds != 0 {
			t.Errorf("FocusedSeconds = %v, want 0", got.FocusedSeconds)
		}
		if got.UnfocusedSeconds != nil {
			t.Errorf("UnfocusedSeconds = %v, want nil", got.UnfocusedSeconds)
		}
		if got.EndedEarly == nil || *got.EndedEarly {
			t.Errorf("EndedEarly = %v, want false", got.EndedEarly)
		}
	})
}

func TestQueries_BindNamedParameters(t *testing.T) {
	tests := map[string]struct {
		query string
		args  map[string]interface{}
		n     int
	}{
		"create": {queryCreateSession, map[string]interface{}{
			"created_at": time.Now(), "duration_minutes": 1, "email": nil, "phone": nil,
			"alert_threshold_ms": 0, "alert_mode": "popup", "send_email": false, "send_sms": false,
		}, 8},
		"complete": {queryCompleteSession, map[string]interface{}{
			"id": 1, "ended_at": time.Now(), "total_seconds": 1, "focused_seconds": 1,
			"unfocused_seconds": 0, "breaks_count": 0, "focus_percent": 100, "ended_early": false,
		}, 8},
		"recent": {queryGetRecentSessions, map[string]interface{}{"limit": 50}, 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			query, args, err := sqlx.Named(tt.query, tt.args)
			if err != nil {
				t.Fatalf("sqlx.Named failed: %v", err)
			}
			if len(args) != tt.n {
				t.Errorf("got %d args, want %d", len(args), tt.n)
			}
			if rebound := sqlx.Rebind(sqlx.DOLLAR, query); !strings.Contains(rebound, "$1") {
				t.Errorf("rebound query has no positional parameters:\n%s", rebound)
			}
		})
	}
}
