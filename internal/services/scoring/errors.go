package scoring

import (
	"fmt"

	apperrors "paybaba/internal/errors"
)

var ErrInvalidInputs = fmt.Errorf("%w: invalid scoring inputs", apperrors.ErrValidation)

// ErrNoScore means no snapshot has been computed for the merchant yet.
var ErrNoScore = fmt.Errorf("%w: no credit score yet", apperrors.ErrNotFound)
