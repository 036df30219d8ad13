package focusService

import (
	"time"

	"FocusSentry/internal/entity"
	contextPkg "FocusSentry/pkg/context"
	"FocusSentry/pkg/redis"
	"FocusSentry/pkg/s3"
	"FocusSentry/pkg/smtp"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type sessionArchive struct {
	Session    entity.FocusSession `json:"session"`
	Summary    string              `json:"summary"`
	FrameTally *entity.FrameTally  `json:"frame_tally,omitempty"`
	ArchivedAt time.Time           `json:"archived_at"`
}

// collectTally reads and clears the live frame counters of a finished session.
func (s *focusService) collectTally(ctx context.Context, sessionID int64) *entity.FrameTally {
	if s.redis == nil {
		return nil
	}

	requestID := contextPkg.GetRequestID(ctx)

	tally, err := s.redis.GetFrameTally(ctx, sessionID)
	if err != nil {
		if !redis.IsNotFound(err) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Failed to read frame tally")
		}
		return nil
	}

	if err := s.redis.DeleteFrameTally(ctx, sessionID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to clear frame tally")
	}

	return &entity.FrameTally{Frames: tally.Frames, Focused: tally.Focused}
}

// deliver sends and archives the summary of a committed session in the
// background, on a context of its own bounded by deliveryTimeout.
func (s *focusService) deliver(requestID string, session entity.FocusSession, tally *entity.FrameTally, archiveKey string) {
	if !session.SendEmail && !session.SendSMS && archiveKey == "" {
		return
	}

	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()

		ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), s.deliveryTimeout)
		defer cancel()

		s.notify(ctx, session)
		if archiveKey != "" {
			s.archiveSummary(ctx, archiveKey, session, tally)
		}
	}()
}

// notify delivers the summary over every channel the session asked for.
// Delivery problems are logged and never reach the caller.
func (s *focusService) notify(ctx context.Context, session entity.FocusSession) {
	if !session.SendEmail && !session.SendSMS {
		return
	}

	requestID := contextPkg.GetRequestID(ctx)
	summary := session.Summary()

	if session.SendEmail && session.Email != "" {
		fields := logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"email":      session.Email,
		}

		if s.mailer == nil {
			fields["summary"] = summary
			s.log.WithFields(fields).Info("Email config missing, would send summary")
		} else if err := s.mailer.SendMail(session.Email, smtp.SummarySubject, summary); err != nil {
			fields["error"] = err.Error()
			fields["summary"] = summary
			s.log.WithFields(fields).Error("Failed to send email summary")
		} else {
			s.log.WithFields(fields).Info("Email summary sent")
		}
	}

	if session.SendSMS && session.Phone != "" {
		fields := logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"phone":      session.Phone,
		}

		if s.whatsapp == nil || !s.whatsapp.IsConnected() {
			fields["summary"] = summary
			s.log.WithFields(fields).Info("Messaging config missing, would send text summary")
		} else if err := s.whatsapp.SendMessage(ctx, session.Phone, summary); err != nil {
			fields["error"] = err.Error()
			fields["summary"] = summary
			s.log.WithFields(fields).Error("Failed to send text summary")
		} else {
			s.log.WithFields(fields).Info("Text summary sent")
		}
	}
}

// archiveLocation picks the archive key for a session and a presigned link
// to it. Both are empty when no archive is configured.
func (s *focusService) archiveLocation(ctx context.Context, session entity.FocusSession) (string, string) {
	if s.archive == nil {
		return "", ""
	}

	endedAt := s.now()
	if session.EndedAt != nil {
		endedAt = *session.EndedAt
	}
	key := s3.SummaryKey(session.ID, endedAt)

	url, err := s.archive.PresignSummary(key)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": session.ID,
			"error":      err.Error(),
		}).Warn("Failed to presign session archive")
		return key, ""
	}

	return key, url
}

func (s *focusService) archiveSummary(ctx context.Context, key string, session entity.FocusSession, tally *entity.FrameTally) {
	requestID := contextPkg.GetRequestID(ctx)

	body, err := jsoniter.Marshal(sessionArchive{
		Session:    session,
		Summary:    session.Summary(),
		FrameTally: tally,
		ArchivedAt: s.now().UTC(),
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Failed to encode session archive")
		return
	}

	if err := s.archive.UploadSummary(ctx, key, body); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"archive":    key,
			"error":      err.Error(),
		}).Error("Failed to archive session summary")
		return
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": session.ID,
		"archive":    key,
	}).Info("Session summary archived")
}
