package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	FrameLimiter(clientIP string) *rate.Limiter
	NewSessionTokenMiddleware(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type Config struct {
	FrameRate  rate.Limit
	FrameBurst int
}

// DefaultConfig allows a client to stream a few frames per second with
// room for a short burst after a stall.
func DefaultConfig() Config {
	return Config{
		FrameRate:  10,
		FrameBurst: 20,
	}
}

type middleware struct {
	rateLimitter        *rateLimiter
	requestIDMiddleware fiber.Handler
	log                 *logrus.Logger
}

func New(logger *logrus.Logger) Middleware {
	return NewWithConfig(logger, DefaultConfig())
}

func NewWithConfig(logger *logrus.Logger, cfg Config) Middleware {
	return &middleware{
		rateLimitter:        newRateLimiter(cfg.FrameRate, cfg.FrameBurst),
		requestIDMiddleware: NewRequestIDMiddleware(),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}
