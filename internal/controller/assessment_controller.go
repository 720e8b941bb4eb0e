package controller

import (
	"context"

	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/pkg/serverutils"
	"ai-reading-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssessmentController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	ShowResult(ctx *fiber.Ctx) error
	StartListening(ctx *fiber.Ctx) error
	StopListening(ctx *fiber.Ctx) error
	PushAudio(ctx *fiber.Ctx) error
	RecognitionResult(ctx *fiber.Ctx) error
	RecognitionError(ctx *fiber.Ctx) error
	RecognitionEnd(ctx *fiber.Ctx) error
	SpeechStarted(ctx *fiber.Ctx) error
	SpeechEnded(ctx *fiber.Ctx) error
	SetTypedAnswer(ctx *fiber.Ctx) error
	SubmitAnswer(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type assessmentController struct {
	assessmentService service.IAssessmentService
}

func NewAssessmentController(assessmentService service.IAssessmentService) IAssessmentController {
	return &assessmentController{
		assessmentService: assessmentService,
	}
}

func (c *assessmentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assessment/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Start)
	h.Get("history", c.History)
	h.Get("history/:id", c.ShowResult)
	h.Get(":id", c.Show)
	h.Post(":id/listen", c.StartListening)
	h.Post(":id/listen/stop", c.StopListening)
	h.Post(":id/audio", c.PushAudio)
	h.Post(":id/recognition/result", c.RecognitionResult)
	h.Post(":id/recognition/error", c.RecognitionError)
	h.Post(":id/recognition/end", c.RecognitionEnd)
	h.Post(":id/speech/start", c.SpeechStarted)
	h.Post(":id/speech/end", c.SpeechEnded)
	h.Put(":id/answer", c.SetTypedAnswer)
	h.Post(":id/answer/submit", c.SubmitAnswer)
	h.Post(":id/cancel", c.Cancel)
	h.Delete(":id", c.Close)
}

func (c *assessmentController) Start(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.StartAssessmentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.assessmentService.Start(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start assessment", res))
}

func (c *assessmentController) Show(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Success show assessment", c.assessmentService.Show)
}

func (c *assessmentController) History(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.AssessmentHistoryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}

	res, err := c.assessmentService.History(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get assessment history", res))
}

func (c *assessmentController) ShowResult(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.assessmentService.ShowResult(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show assessment result", res))
}

func (c *assessmentController) StartListening(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Listening", c.assessmentService.StartListening)
}

func (c *assessmentController) StopListening(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Stopped listening", c.assessmentService.StopListening)
}

// PushAudio takes a raw audio chunk as the request body, typed by its Content-Type.
func (c *assessmentController) PushAudio(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	body := ctx.Body()
	if len(body) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "audio chunk is empty")
	}
	// fasthttp reuses the body buffer after the handler returns
	chunk := append([]byte(nil), body...)

	if err := c.assessmentService.PushAudio(ctx.UserContext(), userId, ctx.Params("id"), chunk, ctx.Get(fiber.HeaderContentType)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Audio received", nil))
}

func (c *assessmentController) RecognitionResult(ctx *fiber.Ctx) error {
	var req dto.RecognitionResultRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	return c.sessionCall(ctx, "Recognition result received", func(rctx context.Context, userId uuid.UUID, id string) (*dto.AssessmentSessionResponse, error) {
		return c.assessmentService.RecognitionResult(rctx, userId, id, &req)
	})
}

func (c *assessmentController) RecognitionError(ctx *fiber.Ctx) error {
	var req dto.RecognitionErrorRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	return c.sessionCall(ctx, "Recognition error received", func(rctx context.Context, userId uuid.UUID, id string) (*dto.AssessmentSessionResponse, error) {
		return c.assessmentService.RecognitionError(rctx, userId, id, &req)
	})
}

func (c *assessmentController) RecognitionEnd(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Recognition ended", c.assessmentService.RecognitionEnd)
}

func (c *assessmentController) SpeechStarted(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Speech started", c.assessmentService.SpeechStarted)
}

func (c *assessmentController) SpeechEnded(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Speech ended", c.assessmentService.SpeechEnded)
}

func (c *assessmentController) SetTypedAnswer(ctx *fiber.Ctx) error {
	var req dto.TypedAnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	return c.sessionCall(ctx, "Answer updated", func(rctx context.Context, userId uuid.UUID, id string) (*dto.AssessmentSessionResponse, error) {
		return c.assessmentService.SetTypedAnswer(rctx, userId, id, &req)
	})
}

func (c *assessmentController) SubmitAnswer(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Answer submitted", c.assessmentService.SubmitAnswer)
}

func (c *assessmentController) Cancel(ctx *fiber.Ctx) error {
	return c.sessionCall(ctx, "Assessment cancelled", c.assessmentService.Cancel)
}

func (c *assessmentController) Close(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	if err := c.assessmentService.Close(ctx.UserContext(), userId, ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Assessment closed", nil))
}

// sessionCall runs a per-session operation for the caller and wraps the resulting snapshot.
func (c *assessmentController) sessionCall(ctx *fiber.Ctx, message string, call func(context.Context, uuid.UUID, string) (*dto.AssessmentSessionResponse, error)) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := call(ctx.UserContext(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
