package gateway

import (
	"context"
	"fmt"

	"paybaba/internal/models"
	"paybaba/internal/validation"
)

// CreatePayment opens a QRIS payment for req.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*Response, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"paymentType": req.PaymentType,
		"amount":      req.Amount.StringFixed(2),
		"productName": req.ProductName,
	}
	if req.NotifyURL != "" {
		body["notifyUrl"] = req.NotifyURL
	}
	if req.Expire > 0 {
		body["expire"] = req.Expire
	}

	resp, err := c.SendRequest(ctx, c.Path("qris/create"), body, RequestOptions{
		MerchantTradeNo: req.MerchantTradeNo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return resp, nil
}

// QueryPayment polls the status of an existing payment.
func (c *Client) QueryPayment(ctx context.Context, merchantTradeNo, paymentType string) (*Response, error) {
	v := validation.New()
	v.Check(merchantTradeNo != "", "merchantTradeNo", "is required")
	v.Check(len(merchantTradeNo) <= validation.MaxTradeNoLength, "merchantTradeNo", "is too long")
	if err := v.Err(); err != nil {
		return nil, err
	}

	body := map[string]interface{}{}
	if paymentType != "" {
		body["paymentType"] = paymentType
	}
	resp, err := c.SendRequest(ctx, c.Path("qris/query"), body, RequestOptions{
		MerchantTradeNo: merchantTradeNo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return resp, nil
}

// MapStatus converts a gateway status code to a transaction status.
func MapStatus(code string) models.TransactionStatus {
	switch code {
	case StatusCodeSuccess:
		return models.TransactionStatusSuccess
	case StatusCodeFailed:
		return models.TransactionStatusFailed
	default:
		return models.TransactionStatusPending
	}
}
