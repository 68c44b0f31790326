// Package transaction records merchant transactions and moves them through
// their lifecycle. Every mutation rebuilds the affected daily aggregate in
// the same database transaction.
package transaction

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "paybaba/internal/errors"
	"paybaba/internal/models"
	"paybaba/internal/services/aggregate"
	"paybaba/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	log   *logrus.Entry
}

func NewService(store Store, loc *time.Location) *Service {
	if store == nil {
		panic("store is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store: store,
		loc:   loc,
		now:   time.Now,
		log:   logrus.WithField("component", "transaction"),
	}
}

// Record stores a new transaction. Cash is successful and settled on the
// spot; every other method starts pending.
func (s *Service) Record(ctx context.Context, in RecordInput) (*models.Transaction, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	at := s.now()
	if in.TransactionAt != nil {
		at = *in.TransactionAt
	}
	tx := &models.Transaction{
		ID:              uuid.NewString(),
		MerchantID:      in.MerchantID,
		MerchantTradeNo: in.MerchantTradeNo,
		Amount:          in.Amount.Round(2),
		PaymentMethod:   in.PaymentMethod,
		Status:          models.TransactionStatusPending,
		RefundStatus:    models.RefundStatusNone,
		TransactionAt:   at.UTC(),
		Metadata:        in.Metadata,
	}
	if in.PaymentMethod == models.PaymentMethodCash {
		settled := tx.TransactionAt
		tx.Status = models.TransactionStatusSuccess
		tx.SettledAt = &settled
	}
	source := in.Source
	if source == "" {
		source = SourceManual
	}
	if tx.Metadata.Extra == nil {
		tx.Metadata.Extra = map[string]string{}
	}
	tx.Metadata.Extra[metadataSourceKey] = source

	err := s.store.RunInTx(ctx, func(st Store) error {
		if err := st.EnsureMerchant(ctx, tx.MerchantID); err != nil {
			return fmt.Errorf("failed to register merchant: %w", err)
		}
		if err := st.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return s.refreshDay(ctx, st, tx.MerchantID, tx.TransactionAt)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"merchant_id":    tx.MerchantID,
		"transaction_id": tx.ID,
		"method":         tx.PaymentMethod,
		"status":         tx.Status,
	}).Info("transaction recorded")
	return tx, nil
}

// ApplyCallback applies a verified gateway notification. Only pending
// transactions change; a repeated or late notification leaves the
// transaction as it is.
func (s *Service) ApplyCallback(ctx context.Context, u CallbackUpdate) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.store.RunInTx(ctx, func(st Store) error {
		tx, err := st.GetTransactionByTradeNo(ctx, u.MerchantTradeNo)
		if err != nil {
			return notFound(err)
		}
		out = tx
		logger := s.log.WithFields(logrus.Fields{
			"merchant_id":       tx.MerchantID,
			"merchant_trade_no": u.MerchantTradeNo,
			"current":           tx.Status,
			"reported":          u.Status,
		})

		if !u.Amount.IsZero() && !u.Amount.Equal(tx.Amount) {
			logger.WithField("reported_amount", u.Amount.String()).Warn("callback amount differs from recorded amount")
		}
		if tx.Status != models.TransactionStatusPending || u.Status == models.TransactionStatusPending {
			if tx.Status != u.Status {
				logger.Warn("ignoring callback for transaction that is no longer pending")
			}
			return nil
		}
		if u.Status != models.TransactionStatusSuccess && u.Status != models.TransactionStatusFailed {
			return fmt.Errorf("%w: %s", ErrInvalidTransition, u.Status)
		}

		tx.Status = u.Status
		tx.GatewayPayload = u.Payload
		if u.Status == models.TransactionStatusSuccess && u.SettledAt != nil && !u.SettledAt.Before(tx.TransactionAt) {
			settled := u.SettledAt.UTC()
			tx.SettledAt = &settled
		}
		if err := st.UpdateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		logger.Info("transaction status updated from callback")
		return s.refreshDay(ctx, st, tx.MerchantID, tx.TransactionAt)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSettled records when funds for a successful transaction were settled.
// Settling an already settled transaction is a no-op.
func (s *Service) MarkSettled(ctx context.Context, merchantID, id string, at time.Time) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.store.RunInTx(ctx, func(st Store) error {
		tx, err := st.GetTransaction(ctx, merchantID, id)
		if err != nil {
			return notFound(err)
		}
		out = tx
		if tx.SettledAt != nil {
			return nil
		}
		if tx.Status != models.TransactionStatusSuccess {
			return fmt.Errorf("%w: cannot settle a %s transaction", ErrInvalidTransition, tx.Status)
		}
		if at.Before(tx.TransactionAt) {
			return ErrInvalidSettlement
		}
		settled := at.UTC()
		tx.SettledAt = &settled
		if err := st.UpdateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Refund reverses a successful transaction in full.
func (s *Service) Refund(ctx context.Context, merchantID, id string) (*models.Transaction, error) {
	var out *models.Transaction
	err := s.store.RunInTx(ctx, func(st Store) error {
		tx, err := st.GetTransaction(ctx, merchantID, id)
		if err != nil {
			return notFound(err)
		}
		if tx.Status != models.TransactionStatusSuccess {
			return fmt.Errorf("%w: cannot refund a %s transaction", ErrInvalidTransition, tx.Status)
		}
		tx.Status = models.TransactionStatusRefunded
		tx.RefundStatus = models.RefundStatusFull
		if err := st.UpdateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		out = tx
		return s.refreshDay(ctx, st, tx.MerchantID, tx.TransactionAt)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"merchant_id":    merchantID,
		"transaction_id": id,
	}).Info("transaction refunded")
	return out, nil
}

func (s *Service) Get(ctx context.Context, merchantID, id string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, merchantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return tx, nil
}

// RebuildAggregates recomputes every daily aggregate in the day range r from
// raw transactions. Rows for days without transactions are removed, so the
// result matches what intake alone would have written. Returns the number
// of day rows saved.
func (s *Service) RebuildAggregates(ctx context.Context, merchantID string, r models.DateRange) (int, error) {
	if !r.End.After(r.Start) {
		return 0, aggregate.ErrInvalidRange
	}
	rebuilt := 0
	err := s.store.RunInTx(ctx, func(st Store) error {
		n, err := s.replaceDays(ctx, st, merchantID, r)
		rebuilt = n
		return err
	})
	return rebuilt, err
}

// refreshDay rebuilds the aggregate row for the calendar day of at.
func (s *Service) refreshDay(ctx context.Context, st Store, merchantID string, at time.Time) error {
	day := aggregate.DayOf(at, s.loc)
	_, err := s.replaceDays(ctx, st, merchantID, models.DateRange{Start: day, End: day.AddDate(0, 0, 1)})
	return err
}

func (s *Service) replaceDays(ctx context.Context, st Store, merchantID string, r models.DateRange) (int, error) {
	txs, err := st.GetTransactions(ctx, merchantID, aggregate.Instants(r, s.loc), models.TransactionFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	rows, err := aggregate.BuildDailyAggregates(merchantID, txs, s.loc)
	if err != nil {
		return 0, err
	}
	if err := st.DeleteDailyAggregates(ctx, merchantID, r); err != nil {
		return 0, fmt.Errorf("failed to clear daily aggregates: %w", err)
	}
	for i := range rows {
		if err := st.UpsertDailyAggregate(ctx, &rows[i]); err != nil {
			return 0, fmt.Errorf("failed to save daily aggregate: %w", err)
		}
	}
	return len(rows), nil
}

func notFound(err error) error {
	if stderrors.Is(err, apperrors.ErrNotFound) {
		return ErrTransactionNotFound
	}
	return fmt.Errorf("failed to load transaction: %w", err)
}
