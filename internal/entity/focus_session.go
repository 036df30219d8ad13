package entity

import (
	"fmt"
	"strings"
	"time"
)

type FocusSession struct {
	ID               int64      `json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	DurationMinutes  int        `json:"duration_minutes"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	AlertThresholdMs int        `json:"alert_threshold_ms"`
	AlertMode        string     `json:"alert_mode"`
	SendEmail        bool       `json:"send_email"`
	SendSMS          bool       `json:"send_sms"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	TotalSeconds     *int       `json:"total_seconds,omitempty"`
	FocusedSeconds   *int       `json:"focused_seconds,omitempty"`
	UnfocusedSeconds *int       `json:"unfocused_seconds,omitempty"`
	BreaksCount      *int       `json:"breaks_count,omitempty"`
	FocusPercent     *int       `json:"focus_percent,omitempty"`
	EndedEarly       *bool      `json:"ended_early,omitempty"`
}

type SessionResult struct {
	TotalSeconds     int
	FocusedSeconds   int
	UnfocusedSeconds int
	BreaksCount      int
	FocusPercent     int
	EndedEarly       bool
	EndedAt          time.Time
}

type FrameTally struct {
	Frames  int64 `json:"frames"`
	Focused int64 `json:"focused"`
}

type SessionClaims struct {
	SessionID int64
	ExpiresAt time.Time
}

func (s FocusSession) Completed() bool {
	return s.EndedAt != nil
}

// Summary renders the plain-text report sent to the user. Values that were
// never recorded are left out.
func (s FocusSession) Summary() string {
	var lines []string

	started := "unknown start time"
	if !s.CreatedAt.IsZero() {
		started = s.CreatedAt.UTC().Format(time.RFC3339)
	}
	lines = append(lines, fmt.Sprintf("Session started at: %s", started))

	if s.DurationMinutes > 0 {
		lines = append(lines, fmt.Sprintf("Planned duration: %d minute(s)", s.DurationMinutes))
	}
	if s.TotalSeconds != nil {
		lines = append(lines, fmt.Sprintf("Total time recorded: %d second(s)", *s.TotalSeconds))
	}
	if s.FocusedSeconds != nil {
		lines = append(lines, fmt.Sprintf("Time focused: %d second(s)", *s.FocusedSeconds))
	}
	if s.UnfocusedSeconds != nil {
		lines = append(lines, fmt.Sprintf("Time unfocused: %d second(s)", *s.UnfocusedSeconds))
	}
	if s.FocusPercent != nil {
		lines = append(lines, fmt.Sprintf("Focus percentage: %d percent", *s.FocusPercent))
	}
	if s.BreaksCount != nil {
		lines = append(lines, fmt.Sprintf("Number of breaks: %d", *s.BreaksCount))
	}

	endedEarly := "No"
	if s.EndedEarly != nil && *s.EndedEarly {
		endedEarly = "Yes"
	}
	lines = append(lines, fmt.Sprintf("Ended early: %s", endedEarly))

	return strings.Join(lines, "\n")
}
