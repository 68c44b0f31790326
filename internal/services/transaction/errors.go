package transaction

import (
	"fmt"

	apperrors "paybaba/internal/errors"
)

var (
	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", apperrors.ErrNotFound)
	ErrInvalidTransition   = fmt.Errorf("%w: invalid transaction status transition", apperrors.ErrValidation)
	ErrInvalidSettlement   = fmt.Errorf("%w: settlement time precedes the transaction", apperrors.ErrValidation)
)
