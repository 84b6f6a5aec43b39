package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshop/accounts/internal/apperror"
	"github.com/lshop/accounts/internal/logging"
)

func newApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(RequestIDKey, "req-1")
		return c.Next()
	})
	app.Get("/", handler)
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestJSONWritesEnvelope(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return JSON(c, http.StatusCreated, "created", fiber.Map{"id": "42"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 201, body["status_code"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, map[string]any{"id": "42"}, body["data"])
}

func TestErrorHandlerMapsClassifiedErrors(t *testing.T) {
	conflict := apperror.New(apperror.KindConflict, "DUPLICATE_EMAIL", "taken")
	app := newApp(func(c *fiber.Ctx) error { return conflict })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "DUPLICATE_EMAIL", body["code"])
	assert.Equal(t, "taken", body["message"])
	assert.Equal(t, "req-1", body["request_id"])
}

func TestErrorHandlerHidesUnexpectedErrors(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error { return errors.New("pq: connection refused") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "INTERNAL", body["code"])
	assert.Equal(t, "Something went wrong", body["message"])
}

func TestErrorHandlerKeepsFiberStatus(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusTooManyRequests, "slow down")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "TOO_MANY_REQUESTS", body["code"])
	assert.Equal(t, "slow down", body["message"])
}
