package handlers

import (
	"paybaba/internal/middleware"
	"paybaba/internal/models"
	"paybaba/internal/services/gateway"
	"paybaba/internal/services/transaction"
	"paybaba/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultPaymentType = "QRIS"
	paymentTypeKey     = "payment_type"
)

type PaymentHandler struct {
	gateway      PaymentGateway
	transactions TransactionService
	notifyURL    string
}

func NewPaymentHandler(gw PaymentGateway, transactions TransactionService, notifyURL string) *PaymentHandler {
	return &PaymentHandler{gateway: gw, transactions: transactions, notifyURL: notifyURL}
}

type createPaymentRequest struct {
	PaymentType string          `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
	ProductName string          `json:"product_name"`
	Expire      int             `json:"expire"`
}

// CreatePayment opens a gateway payment and records it as a pending
// transaction keyed by the trade number the gateway will call back with.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var input createPaymentRequest
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.PaymentType == "" {
		input.PaymentType = defaultPaymentType
	}
	merchantID := middleware.MerchantID(c)

	resp, err := h.gateway.CreatePayment(c.UserContext(), gateway.PaymentRequest{
		PaymentType: input.PaymentType,
		Amount:      input.Amount,
		ProductName: input.ProductName,
		NotifyURL:   h.notifyURL,
		Expire:      input.Expire,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	if !resp.Succeeded() {
		logrus.WithFields(logrus.Fields{
			"merchant_id":       merchantID,
			"merchant_trade_no": resp.MerchantTradeNo,
			"status":            resp.StatusCode,
			"err_code":          resp.ErrCode(),
		}).Warn("Gateway rejected payment")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    "gateway rejected payment",
			"err_code": resp.ErrCode(),
		})
	}

	tx, err := h.transactions.Record(c.UserContext(), transaction.RecordInput{
		MerchantID:      merchantID,
		MerchantTradeNo: resp.MerchantTradeNo,
		Amount:          input.Amount,
		PaymentMethod:   models.PaymentMethodQRIS,
		Metadata: models.TransactionMetadata{
			Extra: map[string]string{paymentTypeKey: input.PaymentType},
		},
		Source: transaction.SourceGateway,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Payment created", fiber.Map{
		"transaction": tx,
		"gateway":     resp.Body,
	})
}

// PaymentStatus asks the gateway for the current state of a payment.
func (h *PaymentHandler) PaymentStatus(c *fiber.Ctx) error {
	tx, err := h.transactions.Get(c.UserContext(), middleware.MerchantID(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	if tx.MerchantTradeNo == "" {
		return response.BadRequest(c, "transaction was not created through the gateway")
	}

	paymentType := tx.Metadata.Extra[paymentTypeKey]
	if paymentType == "" {
		paymentType = defaultPaymentType
	}
	resp, err := h.gateway.QueryPayment(c.UserContext(), tx.MerchantTradeNo, paymentType)
	if err != nil {
		return response.FromError(c, err)
	}

	data := fiber.Map{
		"transaction_id": tx.ID,
		"recorded":       tx.Status,
		"http_status":    resp.StatusCode,
	}
	if resp.Parsed {
		data["gateway"] = resp.Body
		if code, ok := resp.Body["status"].(string); ok {
			data["reported"] = gateway.MapStatus(code)
		}
	} else {
		data["raw"] = resp.Raw
	}
	return response.Success(c, "Payment status", data)
}
