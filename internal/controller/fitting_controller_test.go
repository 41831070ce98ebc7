package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-widget-be/internal/dto"
	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/pkg/serverutils"
)

type stubFittingService struct {
	lastCreate   *dto.CreateFitSessionInput
	lastFeedback *dto.FeedbackRequest
	lastShopper  *uuid.UUID
	status       *dto.FitSessionStatusResponse
}

func (s *stubFittingService) CreateSession(_ context.Context, input *dto.CreateFitSessionInput) (*dto.CreateFitSessionResponse, error) {
	s.lastCreate = input
	return &dto.CreateFitSessionResponse{SessionId: uuid.New(), Status: entity.FitStatusProcessing}, nil
}

func (s *stubFittingService) GetStatus(_ context.Context, id uuid.UUID) (*dto.FitSessionStatusResponse, error) {
	if s.status == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return s.status, nil
}

func (s *stubFittingService) ListSessions(_ context.Context, shopperId uuid.UUID, _ dto.ListFitSessionsQuery) ([]*dto.FitSessionResponse, error) {
	s.lastShopper = &shopperId
	return []*dto.FitSessionResponse{}, nil
}

func (s *stubFittingService) SetFavorite(_ context.Context, id uuid.UUID, shopperId *uuid.UUID, req *dto.FavoriteRequest) (*dto.FitSessionResponse, error) {
	s.lastShopper = shopperId
	return &dto.FitSessionResponse{SessionId: id, IsFavorite: *req.IsFavorite}, nil
}

func (s *stubFittingService) SubmitFeedback(_ context.Context, id uuid.UUID, shopperId *uuid.UUID, req *dto.FeedbackRequest) (*dto.FitSessionResponse, error) {
	s.lastShopper = shopperId
	s.lastFeedback = req
	return &dto.FitSessionResponse{SessionId: id, Satisfied: req.Satisfied}, nil
}

func (s *stubFittingService) DeleteSession(context.Context, uuid.UUID, *uuid.UUID) error {
	return nil
}

func newTestApp(svc *stubFittingService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewFittingController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func multipartCreateRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/fit-sessions", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, resp *http.Response) serverutils.APIResponse {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env serverutils.APIResponse
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestCreateGuestSession(t *testing.T) {
	svc := &stubFittingService{}
	app := newTestApp(svc)

	retailerId := uuid.New()
	req := multipartCreateRequest(t, map[string]string{
		"photo_url":   "https://example.com/p.jpg",
		"products":    `[{"id":"p1","name":"Jacket"}]`,
		"retailer_id": retailerId.String(),
	})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.True(t, env.Success)

	require.NotNil(t, svc.lastCreate)
	assert.Nil(t, svc.lastCreate.ShopperId)
	assert.True(t, svc.lastCreate.IsGuest)
	assert.Equal(t, retailerId, svc.lastCreate.RetailerId)
	require.Len(t, svc.lastCreate.Products, 1)
	assert.Equal(t, "p1", svc.lastCreate.Products[0].Id)
}

func TestCreateRejectsBadRetailerId(t *testing.T) {
	app := newTestApp(&stubFittingService{})

	req := multipartCreateRequest(t, map[string]string{
		"photo_url":   "https://example.com/p.jpg",
		"products":    `[{"id":"p1"}]`,
		"retailer_id": "not-a-uuid",
	})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
}

func TestCreateWithBearerTokenAttributesShopper(t *testing.T) {
	t.Setenv("JWT_SECRET", "controller-test-secret")

	svc := &stubFittingService{}
	app := newTestApp(svc)

	shopper := uuid.New()
	claims := jwt.MapClaims{
		"sub": shopper.String(),
		"gid": uuid.New().String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("controller-test-secret"))
	require.NoError(t, err)

	req := multipartCreateRequest(t, map[string]string{
		"photo_url":   "https://example.com/p.jpg",
		"products":    `[{"id":"p1"}]`,
		"retailer_id": uuid.New().String(),
	})
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.NotNil(t, svc.lastCreate)
	require.NotNil(t, svc.lastCreate.ShopperId)
	assert.Equal(t, shopper, *svc.lastCreate.ShopperId)
	assert.False(t, svc.lastCreate.IsGuest)
}

func TestListRequiresToken(t *testing.T) {
	app := newTestApp(&stubFittingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/fit-sessions", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	resultURL := "https://cdn.test/r.png"
	sessionId := uuid.New()
	svc := &stubFittingService{status: &dto.FitSessionStatusResponse{
		SessionId: sessionId,
		Status:    entity.FitStatusCompleted,
		ResultURL: &resultURL,
		Images:    []string{resultURL},
	}}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/fit-sessions/"+sessionId.String()+"/status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"COMPLETED"`)
	assert.Contains(t, string(data), resultURL)
}

func TestFeedbackValidation(t *testing.T) {
	svc := &stubFittingService{}
	app := newTestApp(svc)

	// Missing the required satisfied flag.
	body := bytes.NewBufferString(`{"message":"meh"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/fit-sessions/"+uuid.New().String()+"/feedback", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.lastFeedback)
}
