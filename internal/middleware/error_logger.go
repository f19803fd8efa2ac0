package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

type ErrorLoggerMiddleware struct {
	logger *logrus.Logger
}

func NewErrorLoggerMiddleware(logger *logrus.Logger) *ErrorLoggerMiddleware {
	return &ErrorLoggerMiddleware{logger: logger}
}

// Handle logs 4xx and 5xx responses with request context. Response bodies
// stay generic, so the detail worth keeping lives only in these logs. Errors
// still travelling up to the app ErrorHandler have not set a status yet; their
// status is derived from the error itself.
func (e *ErrorLoggerMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()

		err := c.Next()

		statusCode := c.Response().StatusCode()
		if err != nil {
			var appErr *apperrors.AppError
			var fiberErr *fiber.Error
			switch {
			case errors.As(err, &appErr):
				statusCode = appErr.HTTPStatus()
			case errors.As(err, &fiberErr):
				statusCode = fiberErr.Code
			default:
				statusCode = fiber.StatusInternalServerError
			}
		}
		if statusCode < 400 {
			return err
		}

		duration := time.Since(startTime)
		logFields := logrus.Fields{
			"status_code": statusCode,
			"method":      c.Method(),
			"path":        c.Path(),
			"ip":          ClientIP(c),
			"user_agent":  c.Get("User-Agent"),
			"request_id":  c.Get("X-Request-ID"),
			"duration_ms": duration.Milliseconds(),
		}

		if p := PrincipalFrom(c); p.Authenticated() {
			logFields["login_id"] = p.Member.LoginID
			logFields["auth_method"] = string(p.Method)
		}

		if len(c.Request().URI().QueryString()) > 0 {
			logFields["query"] = string(c.Request().URI().QueryString())
		}

		logEntry := e.logger.WithFields(logFields)
		if statusCode >= 500 {
			if err != nil {
				logEntry = logEntry.WithError(err)
			}
			logEntry.Error("Server error response")
		} else {
			logEntry.Warn("Client error response")
		}

		return err
	}
}
