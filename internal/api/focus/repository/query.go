package focusRepository

const sessionColumns = `
	id, created_at, duration_minutes, email, phone,
	alert_threshold_ms, alert_mode, send_email, send_sms,
	ended_at, total_seconds, focused_seconds, unfocused_seconds,
	breaks_count, focus_percent, ended_early
`

const (
	queryCreateSession = `
		INSERT INTO focus_sessions (
			created_at, duration_minutes, email, phone,
			alert_threshold_ms, alert_mode, send_email, send_sms
		) VALUES (
			:created_at, :duration_minutes, :email, :phone,
			:alert_threshold_ms, :alert_mode, :send_email, :send_sms
		)
		RETURNING` + sessionColumns

	queryCompleteSession = `
		UPDATE focus_sessions
		SET ended_at = :ended_at,
			total_seconds = :total_seconds,
			focused_seconds = :focused_seconds,
			unfocused_seconds = :unfocused_seconds,
			breaks_count = :breaks_count,
			focus_percent = :focus_percent,
			ended_early = :ended_early
		WHERE id = :id
		RETURNING` + sessionColumns

	queryGetRecentSessions = `
		SELECT` + sessionColumns + `
		FROM focus_sessions
		ORDER BY created_at DESC, id DESC
		LIMIT :limit
	`
)
