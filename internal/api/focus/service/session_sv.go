package focusService

import (
	"errors"
	"strings"
	"time"

	"FocusSentry/internal/api/focus"
	"FocusSentry/internal/entity"
	contextPkg "FocusSentry/pkg/context"
	jwtPkg "FocusSentry/pkg/jwt"
	"FocusSentry/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Session tokens outlive the planned duration so a late end call still
// authenticates.
const tokenGracePeriod = time.Hour

func (s *focusService) StartSession(ctx context.Context, req focus.StartSessionRequest) (*focus.StartSessionResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	now := s.now().UTC()
	session := entity.FocusSession{
		CreatedAt:        now,
		DurationMinutes:  req.DurationMinutes,
		Email:            email,
		Phone:            phone,
		AlertThresholdMs: int(*req.AlertThreshold * 1000),
		AlertMode:        req.AlertMode,
		SendEmail:        req.SendEmailFlag && email != "",
		SendSMS:          req.SendSMSFlag && phone != "",
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, focus.ErrInternalServerError
	}

	created, err := repo.Sessions.CreateSession(ctx, session)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create focus session")
		return nil, focus.ErrCreateSession
	}

	endsAt := now.Add(time.Duration(req.DurationMinutes) * time.Minute)

	token, err := jwtPkg.SignSession(created.ID, endsAt.Add(tokenGracePeriod))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": created.ID,
			"error":      err.Error(),
		}).Error("Failed to sign session token")
		return nil, focus.ErrInternalServerError
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": created.ID,
		"duration":   created.DurationMinutes,
		"send_email": created.SendEmail,
		"send_sms":   created.SendSMS,
	}).Info("Focus session started")

	return &focus.StartSessionResponse{
		SessionID:        created.ID,
		DurationMinutes:  created.DurationMinutes,
		Email:            created.Email,
		AlertThresholdMs: created.AlertThresholdMs,
		AlertMode:        created.AlertMode,
		SendEmail:        created.SendEmail,
		SendSMS:          created.SendSMS,
		EndsAt:           endsAt.Format(time.RFC3339),
		SessionToken:     token,
	}, nil
}

func (s *focusService) EndSession(ctx context.Context, req focus.EndSessionRequest) (*focus.EndSessionResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	endedEarly, ok := utils.ParseBool(req.EndedEarly)
	if !ok {
		return nil, focus.ErrInvalidEndedEarly
	}

	repo, err := s.repo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, focus.ErrInternalServerError
	}

	session, err := repo.Sessions.CompleteSession(ctx, req.SessionID, entity.SessionResult{
		TotalSeconds:     *req.TotalSeconds,
		FocusedSeconds:   *req.FocusedSeconds,
		UnfocusedSeconds: *req.UnfocusedSeconds,
		BreaksCount:      *req.BreaksCount,
		FocusPercent:     *req.FocusPercent,
		EndedEarly:       endedEarly,
		EndedAt:          s.now().UTC(),
	})
	if err != nil {
		if rbErr := repo.Rollback(); rbErr != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      rbErr.Error(),
			}).Error("Failed to rollback transaction")
		}
		if errors.Is(err, focus.ErrSessionNotFound) {
			return nil, err
		}
		return nil, focus.ErrInternalServerError
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return nil, focus.ErrInternalServerError
	}

	tally := s.collectTally(ctx, session.ID)
	archiveKey, archiveURL := s.archiveLocation(ctx, session)
	s.deliver(requestID, session, tally, archiveKey)

	s.log.WithFields(logrus.Fields{
		"request_id":    requestID,
		"session_id":    session.ID,
		"focus_percent": valueOrZero(session.FocusPercent),
		"ended_early":   endedEarly,
	}).Info("Focus session ended")

	resp := &focus.EndSessionResponse{
		OK:               true,
		SessionID:        session.ID,
		TotalSeconds:     valueOrZero(session.TotalSeconds),
		FocusedSeconds:   valueOrZero(session.FocusedSeconds),
		UnfocusedSeconds: valueOrZero(session.UnfocusedSeconds),
		BreaksCount:      valueOrZero(session.BreaksCount),
		FocusPercent:     valueOrZero(session.FocusPercent),
		EndedEarly:       session.EndedEarly != nil && *session.EndedEarly,
		ArchiveKey:       archiveKey,
		ArchiveURL:       archiveURL,
	}
	if tally != nil {
		resp.FrameTally = &focus.FrameTallyResponse{
			Frames:  tally.Frames,
			Focused: tally.Focused,
		}
	}

	return resp, nil
}

func (s *focusService) GetHistory(ctx context.Context, limit int) (*focus.HistoryResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, focus.ErrInternalServerError
	}

	sessions, err := repo.Sessions.GetRecentSessions(ctx, NormalizeHistoryLimit(limit))
	if err != nil {
		return nil, focus.ErrInternalServerError
	}

	items := make([]focus.SessionHistoryItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, toHistoryItem(session))
	}

	return &focus.HistoryResponse{
		Sessions: items,
		Count:    len(items),
	}, nil
}

func NormalizeHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return focus.DefaultHistoryLimit
	case limit > focus.MaxHistoryLimit:
		return focus.MaxHistoryLimit
	default:
		return limit
	}
}

func toHistoryItem(session entity.FocusSession) focus.SessionHistoryItem {
	item := focus.SessionHistoryItem{
		ID:               session.ID,
		CreatedAt:        session.CreatedAt.UTC().Format(time.RFC3339),
		DurationMinutes:  session.DurationMinutes,
		Email:            session.Email,
		Phone:            session.Phone,
		AlertThresholdMs: session.AlertThresholdMs,
		AlertMode:        session.AlertMode,
		SendEmail:        session.SendEmail,
		SendSMS:          session.SendSMS,
		TotalSeconds:     session.TotalSeconds,
		FocusedSeconds:   session.FocusedSeconds,
		UnfocusedSeconds: session.UnfocusedSeconds,
		BreaksCount:      session.BreaksCount,
		FocusPercent:     session.FocusPercent,
		EndedEarly:       session.EndedEarly,
	}

	if session.EndedAt != nil {
		endedAt := session.EndedAt.UTC().Format(time.RFC3339)
		item.EndedAt = &endedAt
	}

	return item
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
