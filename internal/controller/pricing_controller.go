package controller

import (
	"sort"

	"ai-mediagen-be/internal/dto"
	"ai-mediagen-be/internal/pkg/serverutils"
	"ai-mediagen-be/pkg/credits"

	"github.com/gofiber/fiber/v2"
)

type IPricingController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type pricingController struct {
	catalog *credits.Catalog
}

func NewPricingController(catalog *credits.Catalog) IPricingController {
	return &pricingController{
		catalog: catalog,
	}
}

// Pricing is public; clients need it before login to render the plan page.
func (c *pricingController) RegisterRoutes(r fiber.Router) {
	r.Get("/pricing", c.List)
}

func (c *pricingController) List(ctx *fiber.Ctx) error {
	prices := c.catalog.List()
	sort.Slice(prices, func(i, j int) bool {
		if prices[i].Provider != prices[j].Provider {
			return prices[i].Provider < prices[j].Provider
		}
		return prices[i].Kind < prices[j].Kind
	})

	res := make([]dto.PriceResponse, 0, len(prices))
	for _, p := range prices {
		res = append(res, dto.PriceResponse{
			Provider:    p.Provider,
			Kind:        p.Kind,
			BaseCost:    p.BaseCost,
			PerSecond:   p.PerSecond,
			Description: p.Description,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get pricing", res))
}
