package validation

const (
	// String lengths
	MaxProductNameLength = 250
	MaxMerchantIDLength  = 64
	MaxTradeNoLength     = 64

	// History page size bounds
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)
