package handler

import (
	"go-barcode-stock/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	service service.StatsService
}

func NewStatsHandler(s service.StatsService) *StatsHandler {
	return &StatsHandler{service: s}
}

// GetStockMovement returns per-day IN/OUT aggregates for charts.
// Query params: days (default 7)
func (h *StatsHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetOverviewStats returns overview statistics
func (h *StatsHandler) GetOverviewStats(c *fiber.Ctx) error {
	stats, err := h.service.GetOverviewStats(c.UserContext())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(stats)
}
