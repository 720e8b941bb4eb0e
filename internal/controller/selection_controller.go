package controller

import (
	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/pkg/serverutils"
	"ai-reading-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISelectionController interface {
	RegisterRoutes(r fiber.Router)
	Begin(ctx *fiber.Ctx) error
	Pointer(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	RequestAIAction(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
}

type selectionController struct {
	selectionService service.ISelectionService
}

func NewSelectionController(selectionService service.ISelectionService) ISelectionController {
	return &selectionController{
		selectionService: selectionService,
	}
}

func (c *selectionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/selection/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post(":documentId", c.Begin)
	h.Get(":documentId", c.State)
	h.Post(":documentId/pointer", c.Pointer)
	h.Delete(":documentId", c.Cancel)
	h.Post(":documentId/ai-action", c.RequestAIAction)
	h.Post(":documentId/ai-action/retry", c.Retry)
}

// Begin expects a multipart form: the page fields plus the rendered page as "raster".
func (c *selectionController) Begin(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	var req dto.BeginSelectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("raster")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "raster file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := c.selectionService.Begin(ctx.UserContext(), userId, documentId, &req, f)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success begin selection", res))
}

func (c *selectionController) Pointer(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	var req dto.PointerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.selectionService.Pointer(ctx.UserContext(), userId, documentId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success handle pointer", res))
}

func (c *selectionController) Cancel(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.selectionService.Cancel(ctx.UserContext(), userId, documentId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success cancel selection", res))
}

func (c *selectionController) State(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.selectionService.State(ctx.UserContext(), userId, documentId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get selection", res))
}

func (c *selectionController) RequestAIAction(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	var req dto.AIActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.selectionService.RequestAIAction(ctx.UserContext(), userId, documentId, &req)
	if err != nil {
		return err
	}

	return aiActionResponse(ctx, res)
}

func (c *selectionController) Retry(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.selectionService.Retry(ctx.UserContext(), userId, documentId)
	if err != nil {
		return err
	}

	return aiActionResponse(ctx, res)
}

func aiActionResponse(ctx *fiber.Ctx, res *dto.AIActionResponse) error {
	if res.Retryable {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponseWithData(fiber.StatusBadGateway, res.Error, res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success request ai action", res))
}
