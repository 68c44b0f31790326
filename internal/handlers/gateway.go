package handlers

import (
	"errors"
	"time"

	apperrors "paybaba/internal/errors"
	"paybaba/internal/models"
	"paybaba/internal/services/gateway"
	"paybaba/internal/services/transaction"
	"paybaba/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// GatewayHandler receives payment notifications from the gateway.
type GatewayHandler struct {
	gateway      CallbackGateway
	transactions TransactionService
	loc          *time.Location
}

func NewGatewayHandler(gw CallbackGateway, transactions TransactionService, loc *time.Location) *GatewayHandler {
	return &GatewayHandler{gateway: gw, transactions: transactions, loc: loc}
}

// Callback verifies the signature over the exact received bytes before any
// field is read, applies the status and replies with a signed acknowledgment.
func (h *GatewayHandler) Callback(c *fiber.Ctx) error {
	path := c.Path()
	raw := append([]byte(nil), c.Body()...)

	ok, err := h.gateway.VerifyCallback(path, raw, c.Get(gateway.HeaderSignature), c.Get(gateway.HeaderTimestamp))
	if err != nil {
		logrus.WithError(err).Error("Callback verification is misconfigured")
		return response.ServerError(c, "callback verification unavailable")
	}
	if !ok {
		return response.ErrorWithCode(c, fiber.StatusUnauthorized, apperrors.ErrSignatureMismatch.Code, "invalid signature")
	}

	n, err := gateway.ParseCallback(raw)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	log := logrus.WithFields(logrus.Fields{
		"merchant_trade_no": n.MerchantTradeNo,
		"gateway_status":    n.Status,
		"request_id":        c.Get(gateway.HeaderRequestID),
	})

	_, err = h.transactions.ApplyCallback(c.UserContext(), transaction.CallbackUpdate{
		MerchantTradeNo: n.MerchantTradeNo,
		Status:          gateway.MapStatus(n.Status),
		Amount:          n.Amount,
		SettledAt:       n.SettledAt(h.loc),
		Payload:         models.NewJSON(gateway.RawFields(raw)),
	})
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		// Unknown trades are acknowledged so the gateway stops redelivering.
		log.Warn("Callback for unknown transaction")
	default:
		log.WithError(err).Error("Failed to apply callback")
		return response.FromError(c, err)
	}

	ack, err := h.gateway.BuildSignedCallbackResponse(path)
	if err != nil {
		log.WithError(err).Error("Failed to sign callback acknowledgment")
		return response.ServerError(c, "failed to sign acknowledgment")
	}
	for k, v := range ack.Headers {
		c.Set(k, v)
	}
	return c.Status(fiber.StatusOK).Send(ack.Body)
}
