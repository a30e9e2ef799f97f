package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docvault/internal/model"
	repoMocks "docvault/internal/repository/mocks"
	"docvault/internal/service"
	serviceMocks "docvault/internal/service/mocks"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		return c.SendString(rid)
	})

	t.Run("generates when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		rid := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, rid)
		_, err = uuid.Parse(rid)
		assert.NoError(t, err)
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-id-42")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, "client-id-42", resp.Header.Get(RequestIDHeader))
	})
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	user := &model.User{ID: userID, Email: "alice@example.com", Role: model.RoleAdmin}
	claims := &service.Claims{UserID: userID, Role: model.RoleAdmin}

	newApp := func(auth *serviceMocks.MockAuthService, users *repoMocks.MockUserRepository) *fiber.App {
		app := fiber.New()
		app.Use(Auth(auth, users))
		app.Get("/", func(c *fiber.Ctx) error {
			actor, ok := ActorFromCtx(c)
			if !ok {
				return fiber.ErrInternalServerError
			}
			return c.JSON(actor)
		})
		return app
	}

	t.Run("valid token resolves the actor", func(t *testing.T) {
		auth := new(serviceMocks.MockAuthService)
		users := new(repoMocks.MockUserRepository)
		auth.On("Parse", "good-token").Return(claims, nil)
		users.On("FindByID", mock.Anything, userID).Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
		resp, err := newApp(auth, users).Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, err := newApp(new(serviceMocks.MockAuthService), new(repoMocks.MockUserRepository)).Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		auth := new(serviceMocks.MockAuthService)
		auth.On("Parse", "bad-token").Return(nil, assert.AnError)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer bad-token")
		resp, err := newApp(auth, new(repoMocks.MockUserRepository)).Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("deleted account", func(t *testing.T) {
		auth := new(serviceMocks.MockAuthService)
		users := new(repoMocks.MockUserRepository)
		auth.On("Parse", "stale-token").Return(claims, nil)
		users.On("FindByID", mock.Anything, userID).Return(nil, sql.ErrNoRows)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer stale-token")
		resp, err := newApp(auth, users).Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestActorFromCtx_Unset(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := ActorFromCtx(c)
		assert.False(t, ok)
		return c.SendStatus(http.StatusOK)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	app := fiber.New()
	app.Use(rl.Handler())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	// Burst of 2, then the bucket is empty.
	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
}

func TestLogger_PassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Use(Logger(zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusTeapot) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
