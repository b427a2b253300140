package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.SendString("user=" + UserID(c))
	})
	app.Get("/", handlers...)
	return app
}

func TestGatewayAuthMiddleware(t *testing.T) {
	app := newApp(GatewayAuthMiddleware("gw-secret"))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong", "Bearer nope", fiber.StatusUnauthorized},
		{"bearer", "Bearer gw-secret", fiber.StatusOK},
		{"raw", "gw-secret", fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestUserContextMiddleware(t *testing.T) {
	app := newApp(UserContextMiddleware())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", " user-42 ")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "user=user-42", string(body))
}

func TestCronSecretMiddleware(t *testing.T) {
	disabled := newApp(CronSecretMiddleware(""))
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer ")
	resp, err := disabled.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app := newApp(CronSecretMiddleware("cron"))
	cases := []struct {
		name   string
		header string
		status int
	}{
		{"exact", "Bearer cron", fiber.StatusOK},
		{"wrong secret", "Bearer gw-secret", fiber.StatusUnauthorized},
		{"bare secret", "cron", fiber.StatusUnauthorized},
		{"extra space", "Bearer  cron", fiber.StatusUnauthorized},
		{"leading space", "  cron", fiber.StatusUnauthorized},
		{"lowercase scheme", "bearer cron", fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			req.Header.Set(fiber.HeaderAuthorization, tc.header)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
