package controller

import (
	"errors"
	"io"

	"ai-mediagen-be/internal/dto"
	"ai-mediagen-be/internal/pkg/serverutils"
	"ai-mediagen-be/internal/service"
	"ai-mediagen-be/pkg/provider"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IGenerationController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type generationController struct {
	generationService service.IGenerationService
}

func NewGenerationController(generationService service.IGenerationService) IGenerationController {
	return &generationController{
		generationService: generationService,
	}
}

func (c *generationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/generation")
	h.Use(serverutils.JwtMiddleware)
	h.Post("generate", c.Generate)
	h.Get("status/:reference_id", c.Status)
	h.Get("history", c.History)
}

func (c *generationController) Generate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	input, err := readInputFile(ctx)
	if err != nil {
		return err
	}

	res, err := c.generationService.Generate(ctx.Context(), userId, &req, input)
	if err != nil {
		var genErr *service.GenerationError
		if errors.As(err, &genErr) {
			return ctx.Status(statusForErrorCode(genErr.Code)).JSON(dto.GenerateErrorResponse{
				ErrorCode:  string(genErr.Code),
				Message:    genErr.Message,
				Refunded:   genErr.Refunded,
				NewBalance: genErr.NewBalance,
			})
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate content", res))
}

func (c *generationController) Status(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	referenceId, err := uuid.Parse(ctx.Params("reference_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reference id")
	}

	res, err := c.generationService.GetJobStatus(ctx.Context(), userId, referenceId)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "job not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get job status", res))
}

func (c *generationController) History(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	res, err := c.generationService.GetHistory(ctx.Context(), userId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get generation history", res))
}

// readInputFile extracts the optional multipart input file (e.g. an init image
// for image-to-image providers). JSON requests simply have none.
func readInputFile(ctx *fiber.Ctx) (*provider.InputFile, error) {
	fh, err := ctx.FormFile("input_file")
	if err != nil {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "could not read input file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "could not read input file")
	}

	return &provider.InputFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func statusForErrorCode(code service.ErrorCode) int {
	switch code {
	case service.ErrCodeValidation:
		return fiber.StatusBadRequest
	case service.ErrCodeInsufficientCredits:
		return fiber.StatusPaymentRequired
	case service.ErrCodeContentPolicy:
		return fiber.StatusUnprocessableEntity
	case service.ErrCodeTimedOut:
		return fiber.StatusGatewayTimeout
	default:
		// PROVIDER_REJECTED, PROVIDER_TRANSIENT_FAILURE, MATERIALIZATION_FAILED
		return fiber.StatusBadGateway
	}
}
