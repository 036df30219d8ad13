package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"FocusSentry/database/postgres"
	focusHandler "FocusSentry/internal/api/focus/handler"
	focusRepository "FocusSentry/internal/api/focus/repository"
	focusService "FocusSentry/internal/api/focus/service"
	"FocusSentry/internal/middleware"
	"FocusSentry/pkg/cascade"
	"FocusSentry/pkg/classifier"
	"FocusSentry/pkg/redis"
	"FocusSentry/pkg/s3"
	"FocusSentry/pkg/smtp"
	"FocusSentry/pkg/utils"
	"FocusSentry/pkg/whatsapp"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"golang.org/x/time/rate"
)

const (
	whatsappConnectTimeout = 30 * time.Second
	shutdownTimeout        = 10 * time.Second
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	classifier     classifier.IClassifier
	cascades       []cascade.ICascade
	redisServer    redis.IRedis
	smtpMailer     smtp.ItfSmtp
	whatsappClient whatsapp.IWhatsappSender
	s3Client       s3.ItfS3
	focusService   focusService.IFocusService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

// WithSMTPMailer enables summary e-mails. A missing SMTP configuration is
// not fatal: sessions that ask for e-mail only get a log line.
func WithSMTPMailer() ServerOption {
	return func(s *Server) error {
		mailer, err := smtp.New()
		if errors.Is(err, smtp.ErrNotConfigured) {
			s.log.Warnf("SMTP mailer disabled: %v", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create SMTP mailer: %w", err)
		}
		s.smtpMailer = mailer
		return nil
	}
}

// WithWhatsappClient pairs the WhatsApp device used for text summaries. It
// is skipped unless WHATSAPP_ENABLED is set, since the first run needs a
// QR code scan.
func WithWhatsappClient() ServerOption {
	return func(s *Server) error {
		if enabled, _ := strconv.ParseBool(os.Getenv("WHATSAPP_ENABLED")); !enabled {
			s.log.Info("WhatsApp client disabled")
			return nil
		}

		client, err := whatsapp.New(context.Background(), whatsappConnectTimeout)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			}
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if errors.Is(err, s3.ErrBucketNotConfigured) {
			s.log.Warn("Session archive disabled: AWS_BUCKET_NAME not set")
			return nil
		}
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithClassifier loads the face and eye cascades named by FOCUS_FACE_CASCADE
// and FOCUS_EYE_CASCADE, or the stock OpenCV cascades found by
// cascade.Locate when those are unset. FOCUS_CASCADE_INSTANCES bounds how
// many frames are scanned at the same time.
func WithClassifier() ServerOption {
	return func(s *Server) error {
		instances, _ := strconv.Atoi(os.Getenv("FOCUS_CASCADE_INSTANCES"))
		if instances < 1 {
			instances = 4
		}

		facePath, err := cascade.Resolve(os.Getenv("FOCUS_FACE_CASCADE"), cascade.FaceCascadeFile)
		if err != nil {
			return fmt.Errorf("failed to find face cascade: %w", err)
		}
		eyePath, err := cascade.Resolve(os.Getenv("FOCUS_EYE_CASCADE"), cascade.EyeCascadeFile)
		if err != nil {
			return fmt.Errorf("failed to find eye cascade: %w", err)
		}

		face, err := cascade.New(facePath, instances)
		if err != nil {
			return fmt.Errorf("failed to load face cascade: %w", err)
		}

		eyes, err := cascade.New(eyePath, instances)
		if err != nil {
			face.Close()
			return fmt.Errorf("failed to load eye cascade: %w", err)
		}

		s.cascades = append(s.cascades, face, eyes)
		s.classifier = classifier.New(face, eyes)
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}

		cfg := middleware.DefaultConfig()
		if raw := os.Getenv("FOCUS_FRAME_RATE"); raw != "" {
			r, err := strconv.ParseFloat(raw, 64)
			if err != nil || r <= 0 {
				return fmt.Errorf("invalid FOCUS_FRAME_RATE %q", raw)
			}
			cfg.FrameRate = rate.Limit(r)
		}
		if raw := os.Getenv("FOCUS_FRAME_BURST"); raw != "" {
			b, err := strconv.Atoi(raw)
			if err != nil || b <= 0 {
				return fmt.Errorf("invalid FOCUS_FRAME_BURST %q", raw)
			}
			cfg.FrameBurst = b
		}

		s.middleware = middleware.NewWithConfig(s.log, cfg)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Focus Sessions
	focusRepo := focusRepository.New(s.db, s.log)
	focusServices := focusService.NewFocusService(s.log, focusRepo, s.classifier,
		focusService.WithRedis(s.redisServer),
		focusService.WithMailer(s.smtpMailer),
		focusService.WithWhatsapp(s.whatsappClient),
		focusService.WithArchive(s.s3Client),
	)
	focusHandlers := focusHandler.New(s.log, s.validator, s.middleware, focusServices, s.utils)
	s.focusService = focusServices

	s.setupHealthCheck()
	s.handlers = append(s.handlers, focusHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	return s.engine.Listen(fmt.Sprintf(":%s", getenv("APP_PORT", "3000")))
}

// Shutdown stops accepting requests, lets pending summary deliveries finish
// and releases every backing client.
func (s *Server) Shutdown() {
	if err := s.engine.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.log.Errorf("Error shutting down HTTP server: %v", err)
	}

	if s.focusService != nil {
		s.focusService.Wait()
	}

	for _, c := range s.cascades {
		c.Close()
	}

	if s.whatsappClient != nil {
		if err := s.whatsappClient.Disconnect(); err != nil {
			s.log.Errorf("Error disconnecting WhatsApp client: %v", err)
		}
	}

	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			s.log.Errorf("Error closing Redis client: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing database: %v", err)
		}
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
