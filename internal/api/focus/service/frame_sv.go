package focusService

import (
	"FocusSentry/internal/api/focus"
	contextPkg "FocusSentry/pkg/context"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// ClassifyFrame never fails: a frame that cannot be judged is reported as
// not focused, with the reason naming the stage that rejected it.
func (s *focusService) ClassifyFrame(ctx context.Context, sessionID int64, frame []byte) focus.FrameResponse {
	requestID := contextPkg.GetRequestID(ctx)

	verdict := s.classifier.Evaluate(frame)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"frame_size": len(frame),
		"verdict":    verdict.String(),
	}).Debug("Frame classified")

	if s.redis != nil {
		if _, err := s.redis.IncrFrameTally(ctx, sessionID, verdict.Focused()); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Failed to update frame tally")
		}
	}

	return focus.FrameResponse{
		Focused: verdict.Focused(),
		Reason:  verdict.String(),
	}
}
