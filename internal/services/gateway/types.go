package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

// Environment selects the gateway base URL.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

const (
	SandboxBaseURL    = "https://sit-pay.paylabs.co.id"
	ProductionBaseURL = "https://pay.paylabs.co.id"

	DefaultAPIVersion = "v2.1"
	DefaultTimezone   = "Asia/Jakarta"

	// TimestampLayout is ISO-8601 with milliseconds and a numeric zone offset.
	TimestampLayout = "2006-01-02T15:04:05.000-07:00"
	requestIDLayout = "20060102150405"
)

// Wire headers.
const (
	HeaderTimestamp   = "X-TIMESTAMP"
	HeaderSignature   = "X-SIGNATURE"
	HeaderPartnerID   = "X-PARTNER-ID"
	HeaderRequestID   = "X-REQUEST-ID"
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json;charset=utf-8"
)

// Config is process wide and immutable after startup.
type Config struct {
	PartnerID   string
	Environment Environment
	BaseURL     string // overrides the environment default when set
	APIVersion  string
	Location    *time.Location
	// Timeout applies only when the caller's context has no deadline. Zero
	// means no client imposed limit.
	Timeout time.Duration
}

// ResolvedBaseURL returns BaseURL or the default for Environment.
func (c Config) ResolvedBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Environment == EnvironmentProduction {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

func (c Config) version() string {
	if c.APIVersion == "" {
		return DefaultAPIVersion
	}
	return c.APIVersion
}

// RequestOptions lets callers pin identifiers for idempotent retries and pin
// the timestamp in tests. Empty fields are generated.
type RequestOptions struct {
	RequestID       string
	MerchantTradeNo string
	Timestamp       string
}

// Response is either a parsed JSON object (Parsed true, Body set) or the raw
// text of a non-JSON reply (Parsed false, Raw set). Callers must check Parsed.
type Response struct {
	StatusCode      int
	Parsed          bool
	Body            map[string]interface{}
	Raw             string
	RequestID       string
	MerchantTradeNo string
}

// ErrCode returns the gateway's errCode field, or "" when absent.
func (r *Response) ErrCode() string {
	if r == nil || !r.Parsed {
		return ""
	}
	if v, ok := r.Body["errCode"].(string); ok {
		return v
	}
	return ""
}

// Succeeded reports a 2xx reply whose errCode is "0".
func (r *Response) Succeeded() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300 && r.ErrCode() == "0"
}

// CallbackAck is the signed acknowledgment returned to an inbound webhook.
type CallbackAck struct {
	Headers map[string]string
	Body    []byte
}

// PaymentRequest creates a QRIS payment.
type PaymentRequest struct {
	PaymentType     string          `validate:"required,max=32"`
	Amount          decimal.Decimal `validate:"gt=0"`
	ProductName     string          `validate:"required,max=250"`
	NotifyURL       string          `validate:"omitempty,url"`
	Expire          int             `validate:"gte=0"`
	MerchantTradeNo string          `validate:"max=64"`
}

// Gateway payment status codes.
const (
	StatusCodePending = "01"
	StatusCodeSuccess = "02"
	StatusCodeFailed  = "09"
)

// CallbackNotification is the typed body of a payment callback. Only parse it
// after VerifyCallback returned true.
type CallbackNotification struct {
	MerchantID      string           `json:"merchantId"`
	RequestID       string           `json:"requestId"`
	ErrCode         string           `json:"errCode"`
	PaymentType     string           `json:"paymentType"`
	Amount          decimal.Decimal  `json:"amount"`
	MerchantTradeNo string           `json:"merchantTradeNo"`
	PlatformTradeNo string           `json:"platformTradeNo"`
	CreateTime      string           `json:"createTime"`
	SuccessTime     string           `json:"successTime"`
	ProductName     string           `json:"productName"`
	Status          string           `json:"status"`
	TransFeeAmount  *decimal.Decimal `json:"transFeeAmount,omitempty"`
}
