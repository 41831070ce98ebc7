package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tryon-widget-be/internal/dto"
	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/pkg/logger"
	"tryon-widget-be/internal/pkg/mailer"
	"tryon-widget-be/internal/pkg/storage"
	"tryon-widget-be/internal/repository/specification"
	"tryon-widget-be/internal/repository/unitofwork"
)

type IFittingService interface {
	CreateSession(ctx context.Context, input *dto.CreateFitSessionInput) (*dto.CreateFitSessionResponse, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*dto.FitSessionStatusResponse, error)
	ListSessions(ctx context.Context, shopperId uuid.UUID, query dto.ListFitSessionsQuery) ([]*dto.FitSessionResponse, error)
	SetFavorite(ctx context.Context, id uuid.UUID, shopperId *uuid.UUID, req *dto.FavoriteRequest) (*dto.FitSessionResponse, error)
	SubmitFeedback(ctx context.Context, id uuid.UUID, shopperId *uuid.UUID, req *dto.FeedbackRequest) (*dto.FitSessionResponse, error)
	DeleteSession(ctx context.Context, id uuid.UUID, shopperId *uuid.UUID) error
}

type fittingService struct {
	uowFactory unitofwork.RepositoryFactory
	photoStore storage.IPhotoStore
	publisher  message.Publisher
	topicName  string
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewFittingService(
	uowFactory unitofwork.RepositoryFactory,
	photoStore storage.IPhotoStore,
	publisher message.Publisher,
	topicName string,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IFittingService {
	return &fittingService{
		uowFactory: uowFactory,
		photoStore: photoStore,
		publisher:  publisher,
		topicName:  topicName,
		mailer:     emailService,
		logger:     log,
	}
}

// CreateSession persists a PROCESSING session and queues the generation job.
// The caller gets the session id immediately; the result arrives via polling.
func (s *fittingService) CreateSession(ctx context.Context, input *dto.CreateFitSessionInput) (*dto.CreateFitSessionResponse, error) {
	if len(input.Products) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "at least one product is required")
	}
	if input.PhotoFile == nil && input.PhotoURL == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "a photo file or photo URL is required")
	}

	photoURL := input.PhotoURL
	if input.PhotoFile != nil {
		// An uploaded file wins over a pasted URL.
		stored, err := s.photoStore.Save(input.PhotoName, input.PhotoFile)
		if err != nil {
			s.logger.Error("FittingService", "Failed to store photo", map[string]interface{}{"error": err.Error()})
			return nil, fiber.NewError(fiber.StatusInternalServerError, "could not store photo")
		}
		photoURL = stored
	}

	session := &entity.FitSession{
		Id:         uuid.New(),
		ShopperId:  input.ShopperId,
		RetailerId: input.RetailerId,
		Status:     entity.FitStatusProcessing,
		PhotoURL:   photoURL,
		Products:   input.Products,
		IsGuest:    input.IsGuest,
		CreatedAt:  time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.FitSessionRepository().Create(ctx, session); err != nil {
		s.logger.Error("FittingService", "Failed to create session", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	payload, _ := json.Marshal(dto.GenerateFitResultMessage{SessionId: session.Id})
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		// The session row exists but no job will pick it up; the poll budget
		// on the widget side bounds how long the shopper waits.
		s.logger.Error("FittingService", "Failed to queue generation job",
			map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "try-on service is busy, please retry")
	}

	s.logger.Info("FittingService", "Session created",
		map[string]interface{}{"session_id": session.Id, "retailer_id": session.RetailerId, "guest": session.IsGuest})

	return &dto.CreateFitSessionResponse{
		SessionId: session.Id,
		Status:    session.Status,
	}, nil
}

func (s *fittingService) GetStatus(ctx context.Context, id uuid.UUID) (*dto.FitSessionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.FitSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	resp := &dto.FitSessionStatusResponse{
		SessionId: session.Id,
		Status:    session.Status,
		ResultURL: session.ResultURL,
	}
	if session.ResultURL != nil {
		resp.Images = []string{*session.ResultURL}
	}
	return resp, nil
}

func (s *fittingService) ListSessions(ctx context.Context, shopperId uuid.UUID, query dto.ListFitSessionsQuery) ([]*dto.FitSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.ByShopperID{ShopperID: shopperId},
		specification.OrderByCreatedDesc{},
	}
	if query.FavoritesOnly {
		specs = append(specs, specification.FavoritesOnly{})
	}
	if query.RetailerId != nil {
		specs = append(specs, specification.ByRetailerID{RetailerID: *query.RetailerId})
	}

	sessions, err := uow.FitSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.FitSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionResponse(session))
	}
	return out, nil
}

func (s *fittingService) SetFavorite(ctx context.Context, id uuid.UUID, shopperId *uuid.UUID, req *dto.FavoriteRequest) (*dto.FitSessionResponse, error) {
	session, uow, err := s.findOwned(ctx, id, shopperId)
	if err != nil {
		return nil, err
	}

	session.IsFavorite = *req.IsFavorite
	now := time.Now()
	session.UpdatedAt = &now

	if err := uow.FitSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// SubmitFeedback records the shopper's rating. Sessions still PROCESSING
// accept feedback too: the shopper may already know the fit is wrong from the
// product list alone.
func (s *fittingService) SubmitFeedback(ctx context.Context, id uuid.UUID, shopperId *uuid.UUID, req *dto.FeedbackRequest) (*dto.FitSessionResponse, error) {
	session, uow, err := s.findOwned(ctx, id, shopperId)
	if err != nil {
		return nil, err
	}

	session.Satisfied = req.Satisfied
	if req.Message != "" {
		msg := req.Message
		session.Feedback = &msg
	}
	now := time.Now()
	session.UpdatedAt = &now

	if err := uow.FitSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	if req.Satisfied != nil && !*req.Satisfied && req.Message != "" {
		go s.alertRetailer(session, req.Message)
	}

	return toSessionResponse(session), nil
}

func (s *fittingService) DeleteSession(ctx context.Context, id uuid.UUID, shopperId *uuid.UUID) error {
	session, uow, err := s.findOwned(ctx, id, shopperId)
	if err != nil {
		return err
	}
	return uow.FitSessionRepository().SoftDelete(ctx, session.Id)
}

// findOwned loads the session and enforces shopper ownership. Guest sessions
// (nil shopper) are only reachable without an authenticated shopper id.
func (s *fittingService) findOwned(ctx context.Context, id uuid.UUID, shopperId *uuid.UUID) (*entity.FitSession, unitofwork.UnitOfWork, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.FitSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	if session.ShopperId != nil {
		if shopperId == nil || *session.ShopperId != *shopperId {
			return nil, nil, fiber.NewError(fiber.StatusForbidden, "not your session")
		}
	}
	return session, uow, nil
}

// alertRetailer emails the retailer about a negative rating. Best effort,
// runs detached from the request.
func (s *fittingService) alertRetailer(session *entity.FitSession, feedback string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	retailer, err := uow.RetailerRepository().FindOne(ctx, specification.ByID{ID: session.RetailerId})
	if err != nil || retailer == nil || retailer.AlertEmail == "" {
		return
	}

	if err := s.mailer.SendFeedbackAlert(retailer.AlertEmail, retailer.Name, session.Id.String(), feedback); err != nil {
		s.logger.Warn("FittingService", "Feedback alert email failed",
			map[string]interface{}{"retailer_id": retailer.Id, "error": err.Error()})
	}
}

func toSessionResponse(session *entity.FitSession) *dto.FitSessionResponse {
	return &dto.FitSessionResponse{
		SessionId:   session.Id,
		Status:      session.Status,
		ResultURL:   session.ResultURL,
		Products:    session.Products,
		RetailerId:  session.RetailerId,
		IsFavorite:  session.IsFavorite,
		Satisfied:   session.Satisfied,
		Feedback:    session.Feedback,
		CreatedAt:   session.CreatedAt,
		ProcessedAt: session.ProcessedAt,
	}
}
