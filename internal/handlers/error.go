package handlers

import (
	"errors"

	"github.com/ggorockee/storemaps/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body for every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is the app-level fiber error handler: fiber errors keep
// their status, anything else is a 500. Server faults are logged with the
// request path; the response body never leaks internals for 5xx.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		logger.GetLogger("http").Errorw("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", code,
			"error", err,
		)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error: message,
	})
}
