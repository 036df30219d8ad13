package focusHandler

import (
	"strconv"
	"time"

	"FocusSentry/internal/api/focus"
	"FocusSentry/internal/entity"
	"FocusSentry/internal/middleware"
	contextPkg "FocusSentry/pkg/context"
	"FocusSentry/pkg/handlerUtil"
	jwtPkg "FocusSentry/pkg/jwt"
	"FocusSentry/pkg/log"
	"FocusSentry/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second

	clientIPKey = "client_ip"
)

func (h *FocusHandler) ProcessFrame(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	sessionID, err := strconv.ParseInt(ctx.FormValue("session_id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return errHandler.Handle(ctx, requestID, focus.ErrInvalidSessionID, ctx.Path(), "parse_session_id")
	}

	claims, err := jwtPkg.GetSessionClaims(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}
	if claims.SessionID != sessionID {
		return errHandler.Handle(ctx, requestID, focus.ErrSessionMismatch, ctx.Path(), "process_frame")
	}

	file, err := ctx.FormFile("frame")
	if err != nil {
		return errHandler.Handle(ctx, requestID, focus.ErrInvalidFrame, ctx.Path(), "read_frame")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"file_size":  file.Size,
	}).Debug("Processing frame upload")

	frame, err := h.utils.ReadFormFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frame")
	}

	result := h.focusService.ClassifyFrame(c, sessionID, frame)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

// handleFrameStream classifies every binary message on the socket and replies
// with one verdict per frame, in order.
func (h *FocusHandler) handleFrameStream(c *websocket.Conn) {
	claims, ok := c.Locals(jwtPkg.SessionLocalsKey).(entity.SessionClaims)
	if !ok {
		h.log.Warn("Frame stream opened without session claims")
		return
	}

	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	clientIP, _ := c.Locals(clientIPKey).(string)
	fields := log.Fields{"request_id": requestID, "session_id": claims.SessionID, "client_ip": clientIP}
	h.log.WithFields(fields).Info("Frame stream connected")
	defer h.log.WithFields(fields).Info("Frame stream disconnected")

	// Larger messages fail the read and close the socket with 1009.
	c.SetReadLimit(int64(utils.DefaultMaxFrameSize))
	limiter := h.middleware.FrameLimiter(clientIP)

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.WithFields(fields).Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			h.log.WithFields(fields).Errorf("Error setting read deadline: %v", err)
			return
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithFields(fields).Errorf("Frame stream error: %v", err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			h.log.WithFields(fields).Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), streamWriteTimeout)
		if err := limiter.Wait(ctx); err != nil {
			cancel()
			h.log.WithFields(fields).Warnf("Frame stream over rate limit: %v", err)
			c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many frames"),
				time.Now().Add(5*time.Second))
			return
		}
		result := h.focusService.ClassifyFrame(ctx, claims.SessionID, message)
		cancel()

		if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			h.log.WithFields(fields).Errorf("Error setting write deadline: %v", err)
			return
		}

		if err := c.WriteJSON(result); err != nil {
			h.log.WithFields(fields).Errorf("Error writing JSON response: %v", err)
			return
		}
	}
}
