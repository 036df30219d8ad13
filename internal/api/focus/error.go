package focus

import "FocusSentry/pkg/response"

var (
	ErrSessionNotFound     = response.NewError(404, "session not found")
	ErrSessionMismatch     = response.NewError(401, "session token does not match session_id")
	ErrInvalidSessionID    = response.NewError(400, "invalid session_id")
	ErrInvalidFrame        = response.NewError(400, "frame file is required")
	ErrFrameTooLarge       = response.NewError(400, "frame file too large")
	ErrInvalidEndedEarly   = response.NewError(400, "ended_early must be true or false")
	ErrCreateSession       = response.NewError(500, "failed to create session")
	ErrInternalServerError = response.NewError(500, "internal server error")
)
