package signing

import (
	"fmt"

	apperrors "paybaba/internal/errors"
)

var (
	ErrNoPrivateKey = fmt.Errorf("%w: signing private key is not configured", apperrors.ErrConfiguration)
	ErrNoPublicKey  = fmt.Errorf("%w: verification public key is not configured", apperrors.ErrConfiguration)
	ErrInvalidKey   = fmt.Errorf("%w: key material could not be parsed", apperrors.ErrConfiguration)
)
