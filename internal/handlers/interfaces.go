package handlers

import (
	"context"
	"time"

	"paybaba/internal/models"
	"paybaba/internal/services/gateway"
	"paybaba/internal/services/scoring"
	"paybaba/internal/services/transaction"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CallbackGateway interface {
	VerifyCallback(path string, rawBody []byte, signature, timestamp string) (bool, error)
	BuildSignedCallbackResponse(path string) (*gateway.CallbackAck, error)
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.Response, error)
	QueryPayment(ctx context.Context, merchantTradeNo, paymentType string) (*gateway.Response, error)
}

type TransactionService interface {
	Record(ctx context.Context, in transaction.RecordInput) (*models.Transaction, error)
	ApplyCallback(ctx context.Context, u transaction.CallbackUpdate) (*models.Transaction, error)
	MarkSettled(ctx context.Context, merchantID, id string, at time.Time) (*models.Transaction, error)
	Refund(ctx context.Context, merchantID, id string) (*models.Transaction, error)
	Get(ctx context.Context, merchantID, id string) (*models.Transaction, error)
	RebuildAggregates(ctx context.Context, merchantID string, r models.DateRange) (int, error)
}

type ScoringService interface {
	Calculate(ctx context.Context, merchantID string, now time.Time) (*scoring.Calculation, error)
	Latest(ctx context.Context, merchantID string) (*models.CreditScoreSnapshot, error)
	History(ctx context.Context, merchantID string, limit int) ([]models.CreditScoreSnapshot, error)
}

type WarningService interface {
	Evaluate(ctx context.Context, merchantID string, now time.Time) ([]models.EarlyWarningAlert, error)
	Unresolved(ctx context.Context, merchantID string) ([]models.EarlyWarningAlert, error)
	Resolve(ctx context.Context, merchantID, alertID string) (*models.EarlyWarningAlert, error)
}
