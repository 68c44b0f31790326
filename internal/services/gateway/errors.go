package gateway

import (
	"errors"
	"fmt"

	apperrors "paybaba/internal/errors"
)

var (
	ErrMissingPartnerID = fmt.Errorf("%w: gateway partner id is not configured", apperrors.ErrConfiguration)
	ErrMalformedBody    = errors.New("request body could not be encoded")
	ErrInvalidCallback  = errors.New("callback body is not a valid notification")
)
