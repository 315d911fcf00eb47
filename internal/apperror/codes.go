package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Domain error codes
const (
	// Wallet connection
	CodeWalletUnavailable  Code = "WALLET_UNAVAILABLE"
	CodeWalletNotConnected Code = "WALLET_NOT_CONNECTED"

	// Chain RPC
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeBlockFetchFailed    Code = "BLOCK_FETCH_FAILED"
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"
	CodeGasEstimationFailed Code = "GAS_ESTIMATION_FAILED"

	// Whitelist flow
	CodeWhitelistReadFailed Code = "WHITELIST_READ_FAILED"
	CodeRegistrationFailed  Code = "REGISTRATION_FAILED"

	// Transaction tracking
	CodeTransactionTrackFailed Code = "TRANSACTION_TRACK_FAILED"
	CodeStorageError           Code = "STORAGE_ERROR"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
