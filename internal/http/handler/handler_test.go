package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docvault/internal/access"
	"docvault/internal/apperr"
	"docvault/internal/http/middleware"
	"docvault/internal/model"
	"docvault/internal/service"
	serviceMocks "docvault/internal/service/mocks"
)

type fixture struct {
	app   *fiber.App
	auth  *serviceMocks.MockAuthService
	docs  *serviceMocks.MockDocumentService
	share *serviceMocks.MockShareService
	actor access.Identity
}

// newFixture builds the app with mocked services and an auth middleware stub
// that injects a fixed actor.
func newFixture(t *testing.T, actor access.Identity) *fixture {
	t.Helper()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		auth:  new(serviceMocks.MockAuthService),
		docs:  new(serviceMocks.MockDocumentService),
		share: new(serviceMocks.MockShareService),
		actor: actor,
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	h := New(db, f.auth, f.docs, nil, nil, f.share)

	authStub := func(c *fiber.Ctx) error {
		c.Locals(middleware.ActorLocalKey, actor)
		return c.Next()
	}
	RegisterRoutes(app, h, authStub)

	f.app = app
	return f
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRegister(t *testing.T) {
	f := newFixture(t, access.Identity{})

	t.Run("created", func(t *testing.T) {
		u := &model.User{ID: uuid.New(), Email: "alice@example.com", Role: model.RoleUser}
		f.auth.On("Register", mock.Anything, "alice@example.com", "s3cret-pass").Return(u, nil).Once()

		body := strings.NewReader(`{"email":"alice@example.com","password":"s3cret-pass"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		got := decode[model.User](t, resp)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("validation error", func(t *testing.T) {
		f.auth.On("Register", mock.Anything, "x", "short").
			Return(nil, apperr.Validation("password must be at least 8 characters")).Once()

		body := strings.NewReader(`{"email":"x","password":"short"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		got := decode[errorPayload](t, resp)
		assert.Equal(t, "VALIDATION_ERROR", got.Error.Code)
	})
}

func TestLogin(t *testing.T) {
	f := newFixture(t, access.Identity{})
	u := &model.User{ID: uuid.New(), Email: "alice@example.com"}
	f.auth.On("Login", mock.Anything, "alice@example.com", "s3cret-pass").Return("signed.jwt", u, nil)

	body := strings.NewReader(`{"email":"alice@example.com","password":"s3cret-pass"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := f.app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	assert.Equal(t, "signed.jwt", got["token"])
}

func TestUpload(t *testing.T) {
	actor := access.Identity{ID: uuid.New(), Role: model.RoleUser}
	f := newFixture(t, actor)

	doc := &model.Document{ID: uuid.New(), OwnerID: actor.ID, Filename: "test.txt"}
	version := &model.DocumentVersion{ID: uuid.New(), DocumentID: doc.ID, VersionNumber: 1}
	f.docs.On("Upload", mock.Anything, actor, mock.MatchedBy(func(in service.UploadInput) bool {
		return in.Filename == "test.txt" && in.DocumentID == nil
	})).Return(doc, version, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "test.txt")
	require.NoError(t, err)
	part.Write([]byte("hello world"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, _ := f.app.Test(req)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	f.docs.AssertExpectations(t)
}

func TestUpload_FileRequired(t *testing.T) {
	f := newFixture(t, access.Identity{ID: uuid.New()})

	req := httptest.NewRequest(http.MethodPost, "/documents", nil)
	resp, _ := f.app.Test(req)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetDocument(t *testing.T) {
	actor := access.Identity{ID: uuid.New(), Role: model.RoleUser}
	f := newFixture(t, actor)

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil)
		resp, _ := f.app.Test(req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("permission denied maps to 403", func(t *testing.T) {
		docID := uuid.New()
		f.docs.On("Get", mock.Anything, actor, docID).
			Return(nil, apperr.PermissionDenied(actor.ID, docID, "READ")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+docID.String(), nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		got := decode[errorPayload](t, resp)
		assert.Equal(t, "FORBIDDEN", got.Error.Code)
	})

	t.Run("found", func(t *testing.T) {
		doc := &model.Document{ID: uuid.New(), OwnerID: actor.ID, Filename: "report.pdf"}
		f.docs.On("Get", mock.Anything, actor, doc.ID).Return(doc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+doc.ID.String(), nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[model.Document](t, resp)
		assert.Equal(t, "report.pdf", got.Filename)
	})
}

func TestDeleteDocument(t *testing.T) {
	actor := access.Identity{ID: uuid.New(), Role: model.RoleUser}
	f := newFixture(t, actor)
	docID := uuid.New()
	f.docs.On("Delete", mock.Anything, actor, docID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/documents/"+docID.String(), nil)
	resp, _ := f.app.Test(req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestIssueLink(t *testing.T) {
	actor := access.Identity{ID: uuid.New(), Role: model.RoleUser}
	f := newFixture(t, actor)
	docID := uuid.New()

	tok := &model.DownloadToken{
		ID:         uuid.New(),
		DocumentID: docID,
		VersionID:  uuid.New(),
		Token:      "abc123",
		ExpiresAt:  time.Now().Add(15 * time.Minute),
	}
	f.share.On("Issue", mock.Anything, actor, docID, mock.MatchedBy(func(in service.IssueInput) bool {
		return in.TTL != nil && *in.TTL == 60*time.Second
	})).Return(tok, nil)

	body := strings.NewReader(`{"ttl_sec":60}`)
	req := httptest.NewRequest(http.MethodPost, "/documents/"+docID.String()+"/links", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := f.app.Test(req)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	got := decode[issueLinkResponse](t, resp)
	assert.Equal(t, "abc123", got.Token)
	assert.Equal(t, "/links/abc123/download", got.URL)
}

func TestValidateLink(t *testing.T) {
	f := newFixture(t, access.Identity{})
	f.share.On("Validate", mock.Anything, "abc123").
		Return(&service.LinkValidation{Valid: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/links/abc123", nil)
	resp, _ := f.app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[service.LinkValidation](t, resp)
	assert.True(t, got.Valid)
}

func TestDownloadLink(t *testing.T) {
	f := newFixture(t, access.Identity{})

	t.Run("redirects to presigned url", func(t *testing.T) {
		f.share.On("Consume", mock.Anything, "good").
			Return(&service.DownloadResult{URL: "https://minio/signed"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/links/good/download", nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://minio/signed", resp.Header.Get("Location"))
	})

	t.Run("expired maps to 410", func(t *testing.T) {
		f.share.On("Consume", mock.Anything, "expired").
			Return(nil, apperr.TokenExpired()).Once()

		req := httptest.NewRequest(http.MethodGet, "/links/expired/download", nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusGone, resp.StatusCode)
		got := decode[errorPayload](t, resp)
		assert.Equal(t, "LINK_EXPIRED", got.Error.Code)
	})

	t.Run("used maps to 409", func(t *testing.T) {
		f.share.On("Consume", mock.Anything, "used").
			Return(nil, apperr.TokenAlreadyUsed()).Once()

		req := httptest.NewRequest(http.MethodGet, "/links/used/download", nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		got := decode[errorPayload](t, resp)
		assert.Equal(t, "LINK_ALREADY_USED", got.Error.Code)
	})

	t.Run("unknown maps to 404", func(t *testing.T) {
		f.share.On("Consume", mock.Anything, "gone").
			Return(nil, apperr.NotFound("download link not found")).Once()

		req := httptest.NewRequest(http.MethodGet, "/links/gone/download", nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPurgeExpiredLinks(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		admin := access.Identity{ID: uuid.New(), Role: model.RoleAdmin}
		f := newFixture(t, admin)
		f.share.On("DeleteExpired", mock.Anything, admin).Return(int64(7), nil)

		req := httptest.NewRequest(http.MethodDelete, "/admin/links/expired", nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[map[string]int64](t, resp)
		assert.Equal(t, int64(7), got["deleted"])
	})

	t.Run("non-admin", func(t *testing.T) {
		user := access.Identity{ID: uuid.New(), Role: model.RoleUser}
		f := newFixture(t, user)
		f.share.On("DeleteExpired", mock.Anything, user).
			Return(int64(0), apperr.New(apperr.KindInsufficientPermission, "expired-link cleanup requires the ADMIN role"))

		req := httptest.NewRequest(http.MethodDelete, "/admin/links/expired", nil)
		resp, _ := f.app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing()

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
		h := New(db, nil, nil, nil, nil, nil)
		RegisterRoutes(app, h, func(c *fiber.Ctx) error { return c.Next() })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("db down", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
		h := New(db, nil, nil, nil, nil, nil)
		RegisterRoutes(app, h, func(c *fiber.Ctx) error { return c.Next() })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
