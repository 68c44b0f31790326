package aggregate

import (
	"fmt"

	apperrors "paybaba/internal/errors"
)

var (
	ErrInvalidRange    = fmt.Errorf("%w: range end must be after start", apperrors.ErrValidation)
	ErrMissingMerchant = fmt.Errorf("%w: merchant id is required", apperrors.ErrValidation)
	ErrNegativeAmount  = fmt.Errorf("%w: transaction amount must not be negative", apperrors.ErrValidation)
)
