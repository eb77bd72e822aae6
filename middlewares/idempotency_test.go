package middlewares

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"milkrun-backend/database"
	"milkrun-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// useTestDatabase swaps the package-global connection for a private
// in-memory sqlite database for the duration of the test.
func useTestDatabase(t *testing.T) {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.IdempotencyKey{}))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
}

func newIdempotencyTestApp(runs *int) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", "admin-1")
		return c.Next()
	})
	app.Use(Idempotency())
	app.Post("/jobs/run", func(c *fiber.Ctx) error {
		*runs++
		return c.JSON(fiber.Map{"run": *runs})
	})
	return app
}

func postJob(t *testing.T, app *fiber.App, key, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/jobs/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(out)
}

func TestIdempotency(t *testing.T) {
	t.Run("replay returns the stored response without rerunning the handler", func(t *testing.T) {
		useTestDatabase(t)
		runs := 0
		app := newIdempotencyTestApp(&runs)

		status1, body1 := postJob(t, app, "key-1", `{}`)
		status2, body2 := postJob(t, app, "key-1", `{}`)

		assert.Equal(t, 1, runs)
		assert.Equal(t, status1, status2)
		assert.Equal(t, body1, body2)
		assert.Contains(t, body1, `"run":1`)
	})

	t.Run("a different key runs the handler again", func(t *testing.T) {
		useTestDatabase(t)
		runs := 0
		app := newIdempotencyTestApp(&runs)

		postJob(t, app, "key-1", `{}`)
		_, body := postJob(t, app, "key-2", `{}`)

		assert.Equal(t, 2, runs)
		assert.Contains(t, body, `"run":2`)
	})

	t.Run("key reuse with a different request body conflicts", func(t *testing.T) {
		useTestDatabase(t)
		runs := 0
		app := newIdempotencyTestApp(&runs)

		postJob(t, app, "key-1", `{"a":1}`)
		status, _ := postJob(t, app, "key-1", `{"a":2}`)

		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, 1, runs)
	})

	t.Run("no key means no replay protection", func(t *testing.T) {
		useTestDatabase(t)
		runs := 0
		app := newIdempotencyTestApp(&runs)

		postJob(t, app, "", `{}`)
		postJob(t, app, "", `{}`)
		assert.Equal(t, 2, runs)
	})
}
