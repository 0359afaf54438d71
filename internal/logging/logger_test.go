package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"waste-console/internal/apperr"
)

func TestNewFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "loud", Format: "console", ServiceName: "waste-console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWritesToConfiguredOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	log, err := New(Config{Level: "info", ServiceName: "wastectl", Output: path})
	require.NoError(t, err)
	log.Info("export written")
	_ = log.Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"export written"`)
	assert.Contains(t, string(content), `"service":"wastectl"`)
}

func TestMiddlewareLogsRenderedStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(log)})
	app.Use(Middleware(log))
	app.Get("/ok", func(c *fiber.Ctx) error {
		c.Locals("user_id", "u1")
		return c.SendString("ok")
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return apperr.Validation("year", "year is required")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/bad", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "request", entries[0].Message)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
	assert.Equal(t, "request rejected", entries[1].Message)
	assert.EqualValues(t, 400, entries[1].ContextMap()["status"])
}
