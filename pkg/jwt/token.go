package jwtPkg

import (
	"FocusSentry/internal/entity"
	"errors"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
	"time"
)

const SessionTokenSecret = "FOCUS_SESSION_TOKEN_SECRET"

const SessionLocalsKey = "session"

var (
	ErrEmptyToken         = errors.New("empty token")
	ErrInvalidClaims      = errors.New("token claims are missing required fields")
	ErrSecretNotSet       = errors.New("JWT secret not configured")
)

func Sign(data map[string]interface{}, expiresAt time.Time) (string, int64, error) {
	secret := os.Getenv(SessionTokenSecret)
	if secret == "" {
		return "", 0, fmt.Errorf("%s not set", SessionTokenSecret)
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiresAt.Unix()
	claims["iat"] = time.Now().Unix()

	for k, v := range data {
		claims[k] = v
	}

	logrus.WithField("claims", claims).Debug("Creating token with claims")

	to := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := to.SignedString([]byte(secret))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return token, expiresAt.Unix(), nil
}

func SignSession(sessionID int64, expiresAt time.Time) (string, error) {
	token, _, err := Sign(map[string]interface{}{
		"session_id": sessionID,
	}, expiresAt)
	return token, err
}

func VerifyToken(raw string, secretEnvKey string) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyToken")

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyToken
	}

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		log.Errorf("%s environment variable not set", secretEnvKey)
		return nil, ErrSecretNotSet
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.WithField("method", token.Header["alg"]).Warn("Unexpected signing method")
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		log.WithError(err).Debug("Failed to parse JWT token")
		return nil, err
	}

	return token, nil
}

func SessionClaimsFromToken(token *jwt.Token) (entity.SessionClaims, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.SessionClaims{}, ErrInvalidClaims
	}

	// numeric claims decode as float64
	id, ok := claims["session_id"].(float64)
	if !ok || id <= 0 {
		return entity.SessionClaims{}, ErrInvalidClaims
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return entity.SessionClaims{}, ErrInvalidClaims
	}

	return entity.SessionClaims{
		SessionID: int64(id),
		ExpiresAt: exp.Time,
	}, nil
}

func SetSessionClaims(c *fiber.Ctx, claims entity.SessionClaims) {
	c.Locals(SessionLocalsKey, claims)
}

func GetSessionClaims(c *fiber.Ctx) (entity.SessionClaims, error) {
	claims, ok := c.Locals(SessionLocalsKey).(entity.SessionClaims)
	if !ok {
		return entity.SessionClaims{}, fiber.ErrUnauthorized
	}

	return claims, nil
}
