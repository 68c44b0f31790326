package handlers

import (
	"context"
	"time"

	"paybaba/internal/middleware"
	"paybaba/internal/models"
	"paybaba/internal/services/gateway"
	"paybaba/internal/services/scoring"
	"paybaba/internal/services/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
)

type MockTransactionService struct{ mock.Mock }

func (m *MockTransactionService) Record(ctx context.Context, in transaction.RecordInput) (*models.Transaction, error) {
	args := m.Called(ctx, in)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTransactionService) ApplyCallback(ctx context.Context, u transaction.CallbackUpdate) (*models.Transaction, error) {
	args := m.Called(ctx, u)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTransactionService) MarkSettled(ctx context.Context, merchantID, id string, at time.Time) (*models.Transaction, error) {
	args := m.Called(ctx, merchantID, id, at)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTransactionService) Refund(ctx context.Context, merchantID, id string) (*models.Transaction, error) {
	args := m.Called(ctx, merchantID, id)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTransactionService) Get(ctx context.Context, merchantID, id string) (*models.Transaction, error) {
	args := m.Called(ctx, merchantID, id)
	return txOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTransactionService) RebuildAggregates(ctx context.Context, merchantID string, r models.DateRange) (int, error) {
	args := m.Called(ctx, merchantID, r)
	return args.Int(0), args.Error(1)
}

func txOrNil(v interface{}) *models.Transaction {
	if v == nil {
		return nil
	}
	return v.(*models.Transaction)
}

type MockScoringService struct{ mock.Mock }

func (m *MockScoringService) Calculate(ctx context.Context, merchantID string, now time.Time) (*scoring.Calculation, error) {
	args := m.Called(ctx, merchantID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoring.Calculation), args.Error(1)
}

func (m *MockScoringService) Latest(ctx context.Context, merchantID string) (*models.CreditScoreSnapshot, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditScoreSnapshot), args.Error(1)
}

func (m *MockScoringService) History(ctx context.Context, merchantID string, limit int) ([]models.CreditScoreSnapshot, error) {
	args := m.Called(ctx, merchantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CreditScoreSnapshot), args.Error(1)
}

type MockWarningService struct{ mock.Mock }

func (m *MockWarningService) Evaluate(ctx context.Context, merchantID string, now time.Time) ([]models.EarlyWarningAlert, error) {
	args := m.Called(ctx, merchantID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EarlyWarningAlert), args.Error(1)
}

func (m *MockWarningService) Unresolved(ctx context.Context, merchantID string) ([]models.EarlyWarningAlert, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EarlyWarningAlert), args.Error(1)
}

func (m *MockWarningService) Resolve(ctx context.Context, merchantID, alertID string) (*models.EarlyWarningAlert, error) {
	args := m.Called(ctx, merchantID, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EarlyWarningAlert), args.Error(1)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Response), args.Error(1)
}

func (m *MockPaymentGateway) QueryPayment(ctx context.Context, merchantTradeNo, paymentType string) (*gateway.Response, error) {
	args := m.Called(ctx, merchantTradeNo, paymentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Response), args.Error(1)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// asMerchant stands in for the auth middleware.
func asMerchant(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalMerchantID, id)
		return c.Next()
	}
}
