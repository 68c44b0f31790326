package handlers

import (
	"time"

	"paybaba/internal/middleware"
	"paybaba/internal/models"
	"paybaba/internal/services/transaction"
	"paybaba/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const (
	dateLayout     = "2006-01-02"
	maxRebuildDays = 366
)

type TransactionHandler struct {
	transactions TransactionService
	loc          *time.Location
	now          func() time.Time
}

func NewTransactionHandler(transactions TransactionService, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{transactions: transactions, loc: loc, now: time.Now}
}

func (h *TransactionHandler) Record(c *fiber.Ctx) error {
	var input transaction.RecordInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input.MerchantID = middleware.MerchantID(c)
	input.Source = transaction.SourceManual

	tx, err := h.transactions.Record(c.UserContext(), input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Transaction recorded", tx)
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	tx, err := h.transactions.Get(c.UserContext(), middleware.MerchantID(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction", tx)
}

func (h *TransactionHandler) Refund(c *fiber.Ctx) error {
	tx, err := h.transactions.Refund(c.UserContext(), middleware.MerchantID(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction refunded", tx)
}

// Settle marks funds as settled, at settled_at when given, otherwise now.
func (h *TransactionHandler) Settle(c *fiber.Ctx) error {
	var input struct {
		SettledAt *time.Time `json:"settled_at"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	at := h.now()
	if input.SettledAt != nil {
		at = *input.SettledAt
	}

	tx, err := h.transactions.MarkSettled(c.UserContext(), middleware.MerchantID(c), c.Params("id"), at)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transaction settled", tx)
}

// RebuildAggregates recomputes daily aggregates for [from, to], both dates
// inclusive.
func (h *TransactionHandler) RebuildAggregates(c *fiber.Ctx) error {
	from, err := time.ParseInLocation(dateLayout, c.Query("from"), h.loc)
	if err != nil {
		return response.BadRequest(c, "from must be a YYYY-MM-DD date")
	}
	to, err := time.ParseInLocation(dateLayout, c.Query("to"), h.loc)
	if err != nil {
		return response.BadRequest(c, "to must be a YYYY-MM-DD date")
	}

	r := models.DateRange{
		Start: time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC),
		End:   time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1),
	}
	if r.Days() > maxRebuildDays {
		return response.BadRequest(c, "range must not exceed 366 days")
	}
	n, err := h.transactions.RebuildAggregates(c.UserContext(), middleware.MerchantID(c), r)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Aggregates rebuilt", fiber.Map{"days": n})
}
