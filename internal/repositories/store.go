package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "paybaba/internal/errors"
	"paybaba/internal/services/transaction"

	"gorm.io/gorm"
)

// Store is the gorm implementation of every persistence collaborator.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RunInTx runs fn inside a database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(transaction.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, what)
	}
	return err
}
