package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tryon-widget-be/internal/dto"
	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/pkg/serverutils"
	"tryon-widget-be/internal/service"
)

type IFittingController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Favorite(ctx *fiber.Ctx) error
	Feedback(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type fittingController struct {
	fittingService service.IFittingService
}

func NewFittingController(fittingService service.IFittingService) IFittingController {
	return &fittingController{
		fittingService: fittingService,
	}
}

func (c *fittingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/fit-sessions")
	// Guests may create, poll and mutate their own sessions; only the
	// history list requires a signed-in shopper.
	h.Use(serverutils.OptionalJwtMiddleware)
	h.Post("", c.Create)
	h.Get("", serverutils.JwtMiddleware, c.List)
	h.Get(":id/status", c.Status)
	h.Patch(":id/favorite", c.Favorite)
	h.Patch(":id/feedback", c.Feedback)
	h.Delete(":id", c.Delete)
}

func (c *fittingController) Create(ctx *fiber.Ctx) error {
	input := &dto.CreateFitSessionInput{
		PhotoURL: ctx.FormValue("photo_url"),
	}

	if file, err := ctx.FormFile("photo"); err == nil && file != nil {
		f, err := file.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable photo upload")
		}
		defer f.Close()
		input.PhotoFile = f
		input.PhotoName = file.Filename
	}

	var products []entity.ProductRef
	if raw := ctx.FormValue("products"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &products); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "products must be a JSON array")
		}
	}
	input.Products = products

	retailerId, err := uuid.Parse(ctx.FormValue("retailer_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "retailer_id must be a UUID")
	}
	input.RetailerId = retailerId

	input.ShopperId = shopperFromLocals(ctx)
	input.IsGuest = input.ShopperId == nil || ctx.FormValue("is_guest") == "true"

	res, err := c.fittingService.CreateSession(ctx.Context(), input)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *fittingController) Status(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.fittingService.GetStatus(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session status", res))
}

func (c *fittingController) List(ctx *fiber.Ctx) error {
	shopperId := shopperFromLocals(ctx)
	if shopperId == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "sign in to view your try-on history")
	}

	query := dto.ListFitSessionsQuery{
		FavoritesOnly: ctx.QueryBool("favorites"),
	}
	if raw := ctx.Query("retailer_id"); raw != "" {
		rid, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "retailer_id must be a UUID")
		}
		query.RetailerId = &rid
	}

	res, err := c.fittingService.ListSessions(ctx.Context(), *shopperId, query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Sessions", res))
}

func (c *fittingController) Favorite(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	var req dto.FavoriteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.fittingService.SetFavorite(ctx.Context(), id, shopperFromLocals(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Favorite updated", res))
}

func (c *fittingController) Feedback(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	var req dto.FeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.fittingService.SubmitFeedback(ctx.Context(), id, shopperFromLocals(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Feedback recorded", res))
}

func (c *fittingController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.fittingService.DeleteSession(ctx.Context(), id, shopperFromLocals(ctx)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session deleted", nil))
}

func shopperFromLocals(ctx *fiber.Ctx) *uuid.UUID {
	raw, ok := ctx.Locals("shopper_id").(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
