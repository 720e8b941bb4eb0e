package service

import "github.com/gofiber/fiber/v2"

var (
	ErrDocumentNotFound   = fiber.NewError(fiber.StatusNotFound, "document not found")
	ErrReaderNotOpen      = fiber.NewError(fiber.StatusConflict, "document is not open, open it first")
	ErrAnnotationNotFound = fiber.NewError(fiber.StatusNotFound, "annotation not found")
	ErrSessionNotFound    = fiber.NewError(fiber.StatusNotFound, "assessment session not found")
	ErrResultNotFound     = fiber.NewError(fiber.StatusNotFound, "assessment result not found")
	ErrPageOutOfRange     = fiber.NewError(fiber.StatusUnprocessableEntity, "page is outside the document")
	ErrNoSelection        = fiber.NewError(fiber.StatusConflict, "nothing has been captured yet")
	ErrTooManyRequests    = fiber.NewError(fiber.StatusTooManyRequests, "too many AI requests, try again in a moment")
	ErrUnreadableDocument = fiber.NewError(fiber.StatusUnprocessableEntity, "the uploaded file is not a readable PDF")
	ErrUnreadableRaster   = fiber.NewError(fiber.StatusUnprocessableEntity, "the page image must be PNG or JPEG")
	ErrMissingPageCount   = fiber.NewError(fiber.StatusUnprocessableEntity, "page_count is required without a PDF upload")
)
