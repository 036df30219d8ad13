package middleware

import (
	"strings"

	jwtPkg "FocusSentry/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// NewSessionTokenMiddleware accepts the session token as a bearer header or,
// for websocket upgrades where browsers cannot set headers, as the "token"
// query parameter. The verified claims are stored for the handler.
func (m *middleware) NewSessionTokenMiddleware(ctx *fiber.Ctx) error {
	raw := ctx.Get("Authorization")
	source := "header"

	if raw == "" {
		raw = ctx.Query("token")
		source = "query"
	} else if strings.HasPrefix(raw, "Bearer ") {
		raw = strings.TrimPrefix(raw, "Bearer ")
	} else {
		m.log.WithFields(logrus.Fields{
			"path":      ctx.Path(),
			"client_ip": ctx.IP(),
		}).Warn("Authorization header format is invalid")
		return unauthorized(ctx)
	}

	token, err := jwtPkg.VerifyToken(raw, jwtPkg.SessionTokenSecret)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"path":      ctx.Path(),
			"client_ip": ctx.IP(),
			"source":    source,
			"error":     err.Error(),
		}).Warn("Session token verification failed")
		return unauthorized(ctx)
	}

	claims, err := jwtPkg.SessionClaimsFromToken(token)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"path":  ctx.Path(),
			"error": err.Error(),
		}).Warn("Session token claims check")
		return unauthorized(ctx)
	}

	jwtPkg.SetSessionClaims(ctx, claims)

	m.log.WithFields(logrus.Fields{
		"session_id": claims.SessionID,
		"source":     source,
	}).Debug("Session token accepted")

	return ctx.Next()
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, session token invalid or expired",
	})
}
