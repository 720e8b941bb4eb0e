package controller

import (
	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/pkg/serverutils"
	"ai-reading-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IReaderController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	GoToPage(ctx *fiber.Ctx) error
	JumpTo(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type readerController struct {
	readerService service.IReaderService
}

func NewReaderController(readerService service.IReaderService) IReaderController {
	return &readerController{
		readerService: readerService,
	}
}

func (c *readerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/reader/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post(":documentId/open", c.Open)
	h.Get(":documentId", c.State)
	h.Post(":documentId/page", c.GoToPage)
	h.Post(":documentId/jump", c.JumpTo)
	h.Delete(":documentId", c.Close)
}

func (c *readerController) Open(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.readerService.Open(ctx.UserContext(), userId, documentId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success open document", res))
}

func (c *readerController) State(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.readerService.State(ctx.UserContext(), userId, documentId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get reader state", res))
}

func (c *readerController) GoToPage(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	var req dto.GoToPageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.readerService.GoToPage(ctx.UserContext(), userId, documentId, req.Delta)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success turn page", res))
}

func (c *readerController) JumpTo(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	var req dto.JumpToPageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.readerService.JumpTo(ctx.UserContext(), userId, documentId, req.Page)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success jump to page", res))
}

func (c *readerController) Close(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	if err := c.readerService.Close(ctx.UserContext(), userId, documentId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success close document", nil))
}
