package focus

type StartSessionRequest struct {
	DurationMinutes int      `json:"duration_minutes" form:"duration_minutes" validate:"required,gt=0"`
	AlertThreshold  *float64 `json:"alert_threshold" form:"alert_threshold" validate:"required,gte=0"`
	AlertMode       string   `json:"alert_mode" form:"alert_mode" validate:"required,oneof=popup sound both"`
	Email           string   `json:"email" form:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone" form:"phone" validate:"omitempty,e164"`
	SendEmailFlag   bool     `json:"send_email_flag" form:"send_email_flag"`
	SendSMSFlag     bool     `json:"send_sms_flag" form:"send_sms_flag"`
}

type StartSessionResponse struct {
	SessionID        int64  `json:"session_id"`
	DurationMinutes  int    `json:"duration_minutes"`
	Email            string `json:"email,omitempty"`
	AlertThresholdMs int    `json:"alert_threshold_ms"`
	AlertMode        string `json:"alert_mode"`
	SendEmail        bool   `json:"send_email"`
	SendSMS          bool   `json:"send_sms"`
	EndsAt           string `json:"ends_at"`
	SessionToken     string `json:"session_token"`
}

type FrameResponse struct {
	Focused bool   `json:"focused"`
	Reason  string `json:"reason"`
}

type EndSessionRequest struct {
	SessionID        int64  `json:"session_id" form:"session_id" validate:"required,gt=0"`
	TotalSeconds     *int   `json:"total_seconds" form:"total_seconds" validate:"required,gte=0"`
	FocusedSeconds   *int   `json:"focused_seconds" form:"focused_seconds" validate:"required,gte=0"`
	UnfocusedSeconds *int   `json:"unfocused_seconds" form:"unfocused_seconds" validate:"required,gte=0"`
	BreaksCount      *int   `json:"breaks_count" form:"breaks_count" validate:"required,gte=0"`
	FocusPercent     *int   `json:"focus_percent" form:"focus_percent" validate:"required,gte=0,lte=100"`
	EndedEarly       string `json:"ended_early" form:"ended_early" validate:"required"`
}

type FrameTallyResponse struct {
	Frames  int64 `json:"frames"`
	Focused int64 `json:"focused"`
}

type EndSessionResponse struct {
	OK               bool                `json:"ok"`
	SessionID        int64               `json:"session_id"`
	TotalSeconds     int                 `json:"total_seconds"`
	FocusedSeconds   int                 `json:"focused_seconds"`
	UnfocusedSeconds int                 `json:"unfocused_seconds"`
	BreaksCount      int                 `json:"breaks_count"`
	FocusPercent     int                 `json:"focus_percent"`
	EndedEarly       bool                `json:"ended_early"`
	FrameTally       *FrameTallyResponse `json:"frame_tally,omitempty"`
	ArchiveKey       string              `json:"archive_key,omitempty"`
	ArchiveURL       string              `json:"archive_url,omitempty"`
}

type SessionHistoryItem struct {
	ID               int64   `json:"id"`
	CreatedAt        string  `json:"created_at"`
	DurationMinutes  int     `json:"duration_minutes"`
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	AlertThresholdMs int     `json:"alert_threshold_ms"`
	AlertMode        string  `json:"alert_mode"`
	SendEmail        bool    `json:"send_email"`
	SendSMS          bool    `json:"send_sms"`
	EndedAt          *string `json:"ended_at"`
	TotalSeconds     *int    `json:"total_seconds"`
	FocusedSeconds   *int    `json:"focused_seconds"`
	UnfocusedSeconds *int    `json:"unfocused_seconds"`
	BreaksCount      *int    `json:"breaks_count"`
	FocusPercent     *int    `json:"focus_percent"`
	EndedEarly       *bool   `json:"ended_early"`
}

type HistoryResponse struct {
	Sessions []SessionHistoryItem `json:"sessions"`
	Count    int                  `json:"count"`
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)
