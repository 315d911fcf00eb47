package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeWalletUnavailable:  "Wallet extension missing or connection rejected",
	CodeWalletNotConnected: "No wallet account connected",

	CodeRPCConnectionFailed: "Failed to connect to chain RPC endpoint",
	CodeBlockFetchFailed:    "Failed to fetch latest block",
	CodeContractCallFailed:  "Smart contract call failed",
	CodeGasEstimationFailed: "Gas estimation failed",

	CodeWhitelistReadFailed: "Failed to read whitelist state",
	CodeRegistrationFailed:  "Whitelist registration failed",

	CodeTransactionTrackFailed: "Failed to track transaction",
	CodeStorageError:           "Storage error",

	CodeCircuitOpen: "Circuit breaker is open",
}
