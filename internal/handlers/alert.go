package handlers

import (
	"time"

	"paybaba/internal/middleware"
	"paybaba/internal/models"
	"paybaba/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AlertHandler struct {
	warnings WarningService
	now      func() time.Time
}

func NewAlertHandler(warnings WarningService) *AlertHandler {
	return &AlertHandler{warnings: warnings, now: time.Now}
}

// Evaluate runs the detectors and returns only the alerts raised by this run.
func (h *AlertHandler) Evaluate(c *fiber.Ctx) error {
	alerts, err := h.warnings.Evaluate(c.UserContext(), middleware.MerchantID(c), h.now())
	if err != nil {
		return response.FromError(c, err)
	}
	if alerts == nil {
		alerts = []models.EarlyWarningAlert{}
	}
	return response.Success(c, "Early warning evaluation complete", alerts)
}

func (h *AlertHandler) List(c *fiber.Ctx) error {
	alerts, err := h.warnings.Unresolved(c.UserContext(), middleware.MerchantID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Unresolved alerts", alerts)
}

func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	alert, err := h.warnings.Resolve(c.UserContext(), middleware.MerchantID(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Alert resolved", alert)
}
