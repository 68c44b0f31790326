package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionStatus is the lifecycle state of a payment transaction.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusSuccess  TransactionStatus = "success"
	TransactionStatusFailed   TransactionStatus = "failed"
	TransactionStatusRefunded TransactionStatus = "refunded"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is the instrument a customer paid with.
type PaymentMethod string

const (
	PaymentMethodQRIS           PaymentMethod = "qris"
	PaymentMethodVirtualAccount PaymentMethod = "virtual_account"
	PaymentMethodEWallet        PaymentMethod = "ewallet"
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCash           PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodQRIS, PaymentMethodVirtualAccount, PaymentMethodEWallet, PaymentMethodCard, PaymentMethodCash:
		return true
	}
	return false
}


type RefundStatus string

const (
	RefundStatusNone    RefundStatus = "none"
	RefundStatusPartial RefundStatus = "partial"
	RefundStatusFull    RefundStatus = "full"
)

// LineItem is one product line sold in a transaction.
type LineItem struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// TransactionMetadata holds optional free-form details. Every field may be absent.
type TransactionMetadata struct {
	Items        []LineItem        `json:"items,omitempty"`
	CustomerName *string           `json:"customer_name,omitempty"`
	Note         *string           `json:"note,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface
func (m TransactionMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *TransactionMetadata) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = TransactionMetadata{}
		return nil
	}
	return fmt.Errorf("unsupported metadata type %T", value)
}

// Transaction is a merchant payment. Amounts are never rewritten once stored;
// only status, refund status and settlement time change.
type Transaction struct {
	ID              string              `gorm:"primaryKey;size:36" json:"id"`
	MerchantID      string              `gorm:"size:64;not null;index:idx_tx_merchant_time,priority:1" json:"merchant_id"`
	MerchantTradeNo string              `gorm:"size:64;index" json:"merchant_trade_no,omitempty"`
	Amount          decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod   PaymentMethod       `gorm:"size:32;not null" json:"payment_method"`
	Status          TransactionStatus   `gorm:"size:16;not null;default:'pending'" json:"status"`
	RefundStatus    RefundStatus        `gorm:"size:16;not null;default:'none'" json:"refund_status"`
	TransactionAt   time.Time           `gorm:"not null;index:idx_tx_merchant_time,priority:2" json:"transaction_at"`
	SettledAt       *time.Time          `json:"settled_at,omitempty"`
	Metadata        TransactionMetadata `gorm:"type:jsonb" json:"metadata"`
	GatewayPayload  JSON                `gorm:"type:jsonb" json:"-"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// BeforeCreate rejects rows whose status or payment method is outside the
// closed sets.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if !t.Status.Valid() {
		return fmt.Errorf("unknown transaction status %q", t.Status)
	}
	if !t.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q", t.PaymentMethod)
	}
	return nil
}

// TransactionFilter narrows a transaction scan. Zero values mean "any".
type TransactionFilter struct {
	Statuses    []TransactionStatus
	SettledOnly bool
}
