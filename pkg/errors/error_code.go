package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidFeePercent    ErrorCode = 101
	ErrCodeInvalidSlippage      ErrorCode = 102
	ErrCodeInvalidStartBalance  ErrorCode = 103
	ErrCodeMissingPriceColumn   ErrorCode = 104
	ErrCodeMissingTimeColumn    ErrorCode = 105
	ErrCodeInvalidMaxBars       ErrorCode = 106
	ErrCodeInvalidIndicator     ErrorCode = 107
	ErrCodeMissingRule          ErrorCode = 108

	// Rule errors (200-299)
	ErrCodeRuleCompileFailed ErrorCode = 200
	ErrCodeRuleEvalFailed    ErrorCode = 201
	ErrCodeRuleNotBoolean    ErrorCode = 202
	ErrCodeUnknownField      ErrorCode = 203

	// Simulation errors (300-399)
	ErrCodeNonFiniteValue     ErrorCode = 300
	ErrCodeInvariantViolation ErrorCode = 301
	ErrCodeNoPositionOpen     ErrorCode = 302
	ErrCodeNoCashAvailable    ErrorCode = 303
	ErrCodeShortAlreadyOpen   ErrorCode = 304
	ErrCodeRunCanceled        ErrorCode = 305
	ErrCodeEmptyDataset       ErrorCode = 306

	// Dataset errors (400-499)
	ErrCodeDatasetNotFound      ErrorCode = 400
	ErrCodeDatasetLoadFailed    ErrorCode = 401
	ErrCodeColumnNotFound       ErrorCode = 402
	ErrCodeColumnTypeMismatch   ErrorCode = 403
	ErrCodeUnsupportedExtension ErrorCode = 404

	// Storage errors (500-599)
	ErrCodeQueryFailed    ErrorCode = 500
	ErrCodeResultNotFound ErrorCode = 501
	ErrCodeSaveFailed     ErrorCode = 502

	// Market data errors (600-699)
	ErrCodeDownloadFailed  ErrorCode = 600
	ErrCodeWriteFailed     ErrorCode = 601
	ErrCodeInvalidInterval ErrorCode = 602
)
