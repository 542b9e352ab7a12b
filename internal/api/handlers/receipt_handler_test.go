package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/internal/api/handlers"
	"Grocery-Receipt-Tracker/internal/api/presenters"
	"Grocery-Receipt-Tracker/internal/middleware"
	"Grocery-Receipt-Tracker/pkg/jwt"
)

type stubReceiptService struct {
	uploadRes  domain.UploadReceiptsResponse
	summaryRes domain.SessionSummaryResponse
	summaryErr error
	processRes domain.ProcessReceiptsResponse
	processErr error
	listRes    []domain.ReceiptSummary

	gotUserID    string
	gotSessionID string
}

func (s *stubReceiptService) UploadReceipts(_ context.Context, req domain.UploadReceiptsRequest, userID string) (domain.UploadReceiptsResponse, error) {
	s.gotUserID = userID
	s.gotSessionID = req.SessionID
	return s.uploadRes, nil
}

func (s *stubReceiptService) MigrateSession(_ context.Context, userID, sessionID string) (domain.MigrateSessionResponse, error) {
	s.gotUserID = userID
	s.gotSessionID = sessionID
	return domain.MigrateSessionResponse{}, nil
}

func (s *stubReceiptService) ProcessReceipts(_ context.Context, req domain.ProcessReceiptsRequest, userID string) (domain.ProcessReceiptsResponse, error) {
	s.gotUserID = userID
	s.gotSessionID = req.SessionID
	return s.processRes, s.processErr
}

func (s *stubReceiptService) ListReceipts(_ context.Context, userID string) ([]domain.ReceiptSummary, error) {
	s.gotUserID = userID
	return s.listRes, nil
}

func (s *stubReceiptService) SessionSummary(_ context.Context, sessionID string) (domain.SessionSummaryResponse, error) {
	s.gotSessionID = sessionID
	return s.summaryRes, s.summaryErr
}

func newTestApp(service *stubReceiptService) (*fiber.App, jwt.JWTService) {
	app := fiber.New()
	mw := middleware.NewMiddleware()
	jwtService := jwt.NewJWTService("test-secret")
	handler := handlers.NewReceiptHandler(service, validator.New())

	receipts := app.Group("/api/v1/receipts")
	receipts.Post("", mw.OptionalAuthMiddleware(jwtService), handler.UploadReceipts)
	receipts.Post("/process", mw.OptionalAuthMiddleware(jwtService), handler.ProcessReceipts)
	receipts.Get("/summary", handler.GetSessionSummary)
	receipts.Get("", mw.AuthMiddleware(jwtService), handler.GetReceipts)
	receipts.Post("/migrate", mw.AuthMiddleware(jwtService), handler.MigrateSession)

	return app, jwtService
}

func decodeResponse(t *testing.T, resp *http.Response) presenters.Response {
	t.Helper()
	var out presenters.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGetReceiptsAuth(t *testing.T) {
	service := &stubReceiptService{}
	app, jwtService := newTestApp(service)

	t.Run("rejects requests without a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		req.Header.Set("Authorization", "Bearer junk")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("passes the authenticated user through", func(t *testing.T) {
		token, err := jwtService.GenerateTokenUser("user-1", "dana@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "user-1", service.gotUserID)
	})
}

func TestUploadReceiptsHandler(t *testing.T) {
	t.Run("anonymous multipart upload", func(t *testing.T) {
		service := &stubReceiptService{uploadRes: domain.UploadReceiptsResponse{SessionID: "sess-1"}}
		app, _ := newTestApp(service)

		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("file", "a.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image"))
		require.NoError(t, err)
		require.NoError(t, w.WriteField("sessionId", "sess-1"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, "", service.gotUserID)
		assert.Equal(t, "sess-1", service.gotSessionID)

		out := decodeResponse(t, resp)
		assert.True(t, out.Status)
	})

	t.Run("upload without files", func(t *testing.T) {
		service := &stubReceiptService{}
		app, _ := newTestApp(service)

		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("storeName", "Store A"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetSessionSummaryHandler(t *testing.T) {
	t.Run("missing session id", func(t *testing.T) {
		app, _ := newTestApp(&stubReceiptService{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts/summary", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		app, _ := newTestApp(&stubReceiptService{summaryErr: domain.ErrSessionNotFound})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts/summary?sessionId=ghost", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("existing session", func(t *testing.T) {
		service := &stubReceiptService{summaryRes: domain.SessionSummaryResponse{
			TotalAmount: decimal.RequireFromString("18.00"),
			TotalItems:  3,
		}}
		app, _ := newTestApp(service)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts/summary?sessionId=sess-1", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "sess-1", service.gotSessionID)
	})
}

func TestProcessReceiptsHandler(t *testing.T) {
	t.Run("anonymous processing by session id", func(t *testing.T) {
		service := &stubReceiptService{}
		app, _ := newTestApp(service)

		payload, err := json.Marshal(domain.ProcessReceiptsRequest{SessionID: "sess-1"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts/process", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "sess-1", service.gotSessionID)
	})

	t.Run("no session and no token", func(t *testing.T) {
		app, _ := newTestApp(&stubReceiptService{processErr: domain.ErrSessionRequired})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts/process", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
