package handlers

import (
	"errors"
	"strconv"
	"time"

	"paybaba/internal/middleware"
	"paybaba/internal/services/scoring"
	"paybaba/internal/utils/response"
	"paybaba/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CreditScoreHandler struct {
	scores ScoringService
	now    func() time.Time
}

func NewCreditScoreHandler(scores ScoringService) *CreditScoreHandler {
	return &CreditScoreHandler{scores: scores, now: time.Now}
}

// Calculate scores the caller now. Too little history is reported as a
// distinct status rather than as a zero score.
func (h *CreditScoreHandler) Calculate(c *fiber.Ctx) error {
	calc, err := h.scores.Calculate(c.UserContext(), middleware.MerchantID(c), h.now())
	if err != nil {
		return response.FromError(c, err)
	}
	if !calc.Result.Scored() {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Not enough transaction history to calculate a credit score",
			"status":  calc.Result.Status,
		})
	}
	return response.Created(c, "Credit score calculated", fiber.Map{
		"status":   calc.Result.Status,
		"snapshot": calc.Snapshot,
	})
}

func (h *CreditScoreHandler) Latest(c *fiber.Ctx) error {
	snapshot, err := h.scores.Latest(c.UserContext(), middleware.MerchantID(c))
	if errors.Is(err, scoring.ErrNoScore) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "no credit score has been calculated yet",
			"status": "not_scored",
		})
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Latest credit score", snapshot)
}

func (h *CreditScoreHandler) History(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(validation.DefaultHistoryLimit)))
	if err != nil {
		return response.BadRequest(c, "limit must be a number")
	}
	snapshots, err := h.scores.History(c.UserContext(), middleware.MerchantID(c), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Credit score history", snapshots)
}
