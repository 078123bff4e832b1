package controller

import (
	"ai-mediagen-be/internal/dto"
	"ai-mediagen-be/internal/pkg/serverutils"
	"ai-mediagen-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICreditController interface {
	RegisterRoutes(r fiber.Router)
	Balance(ctx *fiber.Ctx) error
	Ledger(ctx *fiber.Ctx) error
	Topup(ctx *fiber.Ctx) error
}

type creditController struct {
	ledgerService service.ICreditLedgerService
}

func NewCreditController(ledgerService service.ICreditLedgerService) ICreditController {
	return &creditController{
		ledgerService: ledgerService,
	}
}

func (c *creditController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/credits")
	h.Use(serverutils.JwtMiddleware)
	h.Get("balance", c.Balance)
	h.Get("ledger", c.Ledger)
	h.Post("topup", c.Topup)
}

func (c *creditController) Balance(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	balance, err := c.ledgerService.GetBalance(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get balance", dto.BalanceResponse{
		UserId:  userId,
		Balance: balance,
	}))
}

func (c *creditController) Ledger(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := c.ledgerService.GetLedger(ctx.Context(), userId, limit, offset)
	if err != nil {
		return err
	}

	res := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, dto.LedgerEntryResponse{
			Id:          e.Id,
			Delta:       e.Delta,
			Kind:        string(e.Kind),
			ReferenceId: e.ReferenceId,
			Reason:      e.Reason,
			CreatedAt:   e.CreatedAt,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get ledger", res))
}

func (c *creditController) Topup(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.TopupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	newBalance, err := c.ledgerService.Topup(ctx.Context(), userId, req.Amount, req.Reason)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success topup credits", dto.TopupResponse{
		NewBalance: newBalance,
	}))
}
