package focusRepository

import (
	"database/sql"
	"errors"
	"time"

	"FocusSentry/internal/api/focus"
	"FocusSentry/internal/entity"
	contextPkg "FocusSentry/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type FocusSessionDB struct {
	ID               int64          `db:"id"`
	CreatedAt        time.Time      `db:"created_at"`
	DurationMinutes  int            `db:"duration_minutes"`
	Email            sql.NullString `db:"email"`
	Phone            sql.NullString `db:"phone"`
	AlertThresholdMs int            `db:"alert_threshold_ms"`
	AlertMode        string         `db:"alert_mode"`
	SendEmail        bool           `db:"send_email"`
	SendSMS          bool           `db:"send_sms"`
	EndedAt          sql.NullTime   `db:"ended_at"`
	TotalSeconds     sql.NullInt32  `db:"total_seconds"`
	FocusedSeconds   sql.NullInt32  `db:"focused_seconds"`
	UnfocusedSeconds sql.NullInt32  `db:"unfocused_seconds"`
	BreaksCount      sql.NullInt32  `db:"breaks_count"`
	FocusPercent     sql.NullInt32  `db:"focus_percent"`
	EndedEarly       sql.NullBool   `db:"ended_early"`
}

func nullInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s FocusSessionDB) toEntity() entity.FocusSession {
	session := entity.FocusSession{
		ID:               s.ID,
		CreatedAt:        s.CreatedAt,
		DurationMinutes:  s.DurationMinutes,
		Email:            s.Email.String,
		Phone:            s.Phone.String,
		AlertThresholdMs: s.AlertThresholdMs,
		AlertMode:        s.AlertMode,
		SendEmail:        s.SendEmail,
		SendSMS:          s.SendSMS,
		TotalSeconds:     nullInt(s.TotalSeconds),
		FocusedSeconds:   nullInt(s.FocusedSeconds),
		UnfocusedSeconds: nullInt(s.UnfocusedSeconds),
		BreaksCount:      nullInt(s.BreaksCount),
		FocusPercent:     nullInt(s.FocusPercent),
	}

	if s.EndedAt.Valid {
		endedAt := s.EndedAt.Time
		session.EndedAt = &endedAt
	}
	if s.EndedEarly.Valid {
		endedEarly := s.EndedEarly.Bool
		session.EndedEarly = &endedEarly
	}

	return session
}

// namedRow runs a named query expected to return a single session row.
func (r *sessionRepository) namedRow(ctx context.Context, query string, argsKV map[string]interface{}) (entity.FocusSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(query, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build named query")
		return entity.FocusSession{}, err
	}
	query = r.q.Rebind(query)

	var sessionDB FocusSessionDB
	if err := r.q.GetContext(ctx, &sessionDB, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": argsKV["id"],
			}).Warn("Focus session not found")
			return entity.FocusSession{}, focus.ErrSessionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error on focus session query")
		return entity.FocusSession{}, err
	}

	return sessionDB.toEntity(), nil
}

func (r *sessionRepository) CreateSession(ctx context.Context, session entity.FocusSession) (entity.FocusSession, error) {
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return r.namedRow(ctx, queryCreateSession, map[string]interface{}{
		"created_at":         createdAt,
		"duration_minutes":   session.DurationMinutes,
		"email":              nullString(session.Email),
		"phone":              nullString(session.Phone),
		"alert_threshold_ms": session.AlertThresholdMs,
		"alert_mode":         session.AlertMode,
		"send_email":         session.SendEmail,
		"send_sms":           session.SendSMS,
	})
}

func (r *sessionRepository) CompleteSession(ctx context.Context, id int64, result entity.SessionResult) (entity.FocusSession, error) {
	endedAt := result.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}

	return r.namedRow(ctx, queryCompleteSession, map[string]interface{}{
		"id":                id,
		"ended_at":          endedAt,
		"total_seconds":     result.TotalSeconds,
		"focused_seconds":   result.FocusedSeconds,
		"unfocused_seconds": result.UnfocusedSeconds,
		"breaks_count":      result.BreaksCount,
		"focus_percent":     result.FocusPercent,
		"ended_early":       result.EndedEarly,
	})
}

func (r *sessionRepository) GetRecentSessions(ctx context.Context, limit int) ([]entity.FocusSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetRecentSessions, map[string]interface{}{
		"limit": limit,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRecentSessions named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []FocusSessionDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing focus sessions")
		return nil, err
	}

	sessions := make([]entity.FocusSession, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.toEntity())
	}

	return sessions, nil
}
