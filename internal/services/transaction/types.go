package transaction

import (
	"time"

	"paybaba/internal/models"

	"github.com/shopspring/decimal"
)

// RecordInput is a transaction reported by the merchant or created for a
// gateway payment.
type RecordInput struct {
	MerchantID      string                     `json:"-" validate:"required,max=64"`
	MerchantTradeNo string                     `json:"merchant_trade_no" validate:"max=64"`
	Amount          decimal.Decimal            `json:"amount" validate:"gte=0"`
	PaymentMethod   models.PaymentMethod       `json:"payment_method" validate:"required,oneof=qris virtual_account ewallet card cash"`
	TransactionAt   *time.Time                 `json:"transaction_at,omitempty"`
	Metadata        models.TransactionMetadata `json:"metadata"`
	Source          string                     `json:"-"`
}

// CallbackUpdate is a verified gateway status notification.
type CallbackUpdate struct {
	MerchantTradeNo string
	Status          models.TransactionStatus
	Amount          decimal.Decimal
	SettledAt       *time.Time
	Payload         models.JSON
}
