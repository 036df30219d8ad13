package focusHandler

import (
	focusService "FocusSentry/internal/api/focus/service"
	"FocusSentry/internal/middleware"
	"FocusSentry/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type FocusHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	focusService focusService.IFocusService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	fs focusService.IFocusService,
	utils utils.IUtils,
) *FocusHandler {
	return &FocusHandler{
		focusService: fs,
		log:          log,
		validator:    validator,
		middleware:   middleware,
		utils:        utils,
	}
}

func (h *FocusHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(clientIPKey, c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	session := srv.Group("/session")

	session.Post("/start", h.StartSession)
	session.Post("/frame", h.middleware.NewRateLimiter, h.middleware.NewSessionTokenMiddleware, h.ProcessFrame)
	session.Post("/end", h.middleware.NewSessionTokenMiddleware, h.EndSession)
	session.Get("/history", h.GetHistory)

	session.Use("/ws", wsMiddleware, h.middleware.NewRateLimiter, h.middleware.NewSessionTokenMiddleware)
	session.Get("/ws", websocket.New(h.handleFrameStream))
}
