package controller

import (
	"ai-reading-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// readerParams resolves the caller and the :documentId route param shared by the reading routes.
func readerParams(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	documentId, err := uuidParam(ctx, "documentId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userId, documentId, nil
}
