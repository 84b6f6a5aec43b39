// Package respond renders the JSON envelope every endpoint answers with.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lshop/accounts/internal/apperror"
)

// RequestIDKey is the Locals key (and header) carrying the request ID.
const RequestIDKey = "X-Request-ID"

// Envelope is the success body.
type Envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id,omitempty"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// ErrorEnvelope is the failure body.
type ErrorEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

// RequestID returns the ID assigned by the request ID middleware, if any.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// JSON writes a success envelope.
func JSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		Success:    true,
		StatusCode: status,
		RequestID:  RequestID(c),
		Message:    message,
		Data:       data,
	})
}

// ErrorHandler is the single place errors become HTTP responses. Classified
// errors keep their status and code, Fiber errors keep their status, and
// anything else is logged and reported as a 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		body := ErrorEnvelope{RequestID: RequestID(c)}

		var appErr *apperror.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			body.StatusCode = appErr.Status
			body.Code = appErr.Code
			body.Message = appErr.Message
		case errors.As(err, &fiberErr):
			body.StatusCode = fiberErr.Code
			body.Code = codeForStatus(fiberErr.Code)
			body.Message = fiberErr.Message
		default:
			appErr = apperror.Internal(err)
			body.StatusCode = appErr.Status
			body.Code = appErr.Code
			body.Message = appErr.Message
		}
		if body.StatusCode == 0 {
			body.StatusCode = http.StatusInternalServerError
		}

		if body.StatusCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("request_id", body.RequestID),
				slog.Any("error", err),
			)
		}
		return c.Status(body.StatusCode).JSON(body)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORISED"
	case http.StatusForbidden:
		return "FORBIDDEN_ACTION"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL"
		}
		return "REQUEST_FAILED"
	}
}
