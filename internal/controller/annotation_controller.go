package controller

import (
	"strconv"

	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/pkg/serverutils"
	"ai-reading-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAnnotationController interface {
	RegisterRoutes(r fiber.Router)
	CreateNote(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type annotationController struct {
	annotationService service.IAnnotationService
}

func NewAnnotationController(annotationService service.IAnnotationService) IAnnotationController {
	return &annotationController{
		annotationService: annotationService,
	}
}

func (c *annotationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/annotation/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("document/:documentId", c.CreateNote)
	h.Get("document/:documentId", c.List)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

func (c *annotationController) CreateNote(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateNoteAnnotationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.annotationService.CreateNote(ctx.UserContext(), userId, documentId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create note", res))
}

func (c *annotationController) List(ctx *fiber.Ctx) error {
	userId, documentId, err := readerParams(ctx)
	if err != nil {
		return err
	}

	var req dto.ListAnnotationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.annotationService.List(ctx.UserContext(), userId, documentId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list annotations", res))
}

func (c *annotationController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := annotationID(ctx)
	if err != nil {
		return err
	}

	res, err := c.annotationService.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show annotation", res))
}

func (c *annotationController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := annotationID(ctx)
	if err != nil {
		return err
	}

	if err := c.annotationService.Delete(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete annotation", nil))
}

func annotationID(ctx *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid annotation id")
	}
	return id, nil
}
