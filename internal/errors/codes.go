package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthExpiredToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
	AuthAccountLocked          ErrorCode = "AUTH_006"
	AuthTokenRevoked           ErrorCode = "AUTH_007"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail  ErrorCode = "VALIDATION_005"
	ValidationInvalidDate   ErrorCode = "VALIDATION_006"
)

// User error codes (USER_*)
const (
	UserNotFound        ErrorCode = "USER_001"
	UserEmailExists     ErrorCode = "USER_002"
	UserWrongPassword   ErrorCode = "USER_003"
	UserSamePassword    ErrorCode = "USER_004"
	UserWeakPassword    ErrorCode = "USER_005"
	UserInvalidCurrency ErrorCode = "USER_006"
)

// Category error codes (CATEGORY_*)
const (
	CategoryNotFound    ErrorCode = "CATEGORY_001"
	CategoryInUse       ErrorCode = "CATEGORY_002"
	CategoryTypeLocked  ErrorCode = "CATEGORY_003"
	CategoryInvalidType ErrorCode = "CATEGORY_004"
	CategoryInvalidID   ErrorCode = "CATEGORY_005"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound      ErrorCode = "TRANSACTION_001"
	TransactionInvalidAmount ErrorCode = "TRANSACTION_002"
	TransactionTypeMismatch  ErrorCode = "TRANSACTION_003"
	TransactionInvalidType   ErrorCode = "TRANSACTION_004"
	TransactionInvalidID     ErrorCode = "TRANSACTION_005"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
	SystemRouteNotFound      ErrorCode = "SYSTEM_007"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthInvalidCredentials:     "Invalid email or password",
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",
	AuthAccountLocked:          "Account is temporarily locked after repeated failed logins",
	AuthTokenRevoked:           "Authorization token has been revoked",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",
	ValidationInvalidEmail:  "Invalid email address format",
	ValidationInvalidDate:   "Invalid date format or range",

	// User errors
	UserNotFound:        "User not found",
	UserEmailExists:     "This email address is already in use",
	UserWrongPassword:   "Current password is incorrect",
	UserSamePassword:    "New password must differ from the current password",
	UserWeakPassword:    "Password does not meet the password policy",
	UserInvalidCurrency: "Currency must be a three-letter ISO 4217 code",

	// Category errors
	CategoryNotFound:    "Category not found",
	CategoryInUse:       "Category is used by existing transactions and cannot be deleted",
	CategoryTypeLocked:  "Category type cannot change while transactions of the current type use it",
	CategoryInvalidType: "Category type must be income or expense",
	CategoryInvalidID:   "Invalid category ID format",

	// Transaction errors
	TransactionNotFound:      "Transaction not found",
	TransactionInvalidAmount: "Amount must be a positive value with at most two decimal places",
	TransactionTypeMismatch:  "Transaction type does not match the category type",
	TransactionInvalidType:   "Transaction type must be income or expense",
	TransactionInvalidID:     "Invalid transaction ID format",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemConfigurationError: "System configuration error",
	SystemUnexpectedError:    "An unexpected error occurred",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemRouteNotFound:      "The requested resource does not exist",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
