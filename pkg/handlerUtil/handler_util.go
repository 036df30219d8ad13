package handlerUtil

import (
	"errors"

	"FocusSentry/internal/api/focus"
	"FocusSentry/pkg/log"
	"FocusSentry/pkg/response"
	"FocusSentry/pkg/utils"

	"github.com/gofiber/fiber/v2"
	fiberUtils "github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) fields(requestID string, err error, path, operation string) log.Fields {
	return log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	// End-of-session clients branch on "ok".
	if errors.Is(err, focus.ErrSessionNotFound) {
		h.logger.WithFields(h.fields(requestID, err, path, operation)).Warn("Focus session not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}

	if errors.Is(err, utils.ErrFileTooLarge) {
		h.logger.WithFields(h.fields(requestID, err, path, operation)).Warn("Frame too large")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": focus.ErrFrameTooLarge.Error(),
		})
	}

	if errors.Is(err, utils.ErrNoFile) || errors.Is(err, utils.ErrNotAnImage) {
		h.logger.WithFields(h.fields(requestID, err, path, operation)).Warn("Invalid frame upload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": focus.ErrInvalidFrame.Error(),
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		entry := h.logger.WithFields(h.fields(requestID, err, path, operation)).WithField("code", respErr.Code)
		if respErr.Code >= fiber.StatusInternalServerError {
			entry.Error("Operation failed with error response")
		} else {
			entry.Warn("Operation failed with error response")
		}
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		h.logger.WithFields(h.fields(requestID, err, path, operation)).Warn("Request rejected")
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	traceID := log.ErrorWithTraceID(h.fields(requestID, err, path, operation), "Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":    "An unexpected error occurred",
		"trace_id": traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(fiberUtils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
