package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every module.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_013"
	ErrCodeUnknown            ErrorCode = "COMMON_099"

	CodeOK ErrorCode = "OK"
)

// Catalog / corpus error codes.
const (
	ErrCodeOffenseNotFound   ErrorCode = "CAT_001"
	ErrCodeOffenseInvalid    ErrorCode = "CAT_002"
	ErrCodeCaseNotFound      ErrorCode = "CAT_003"
	ErrCodeCaseInvalid       ErrorCode = "CAT_004"
	ErrCodeCatalogEmpty      ErrorCode = "CAT_005"
	ErrCodeDuplicateOffense  ErrorCode = "CAT_006"
	ErrCodeDuplicateCaseID   ErrorCode = "CAT_007"
)

// Classification module error codes.
const (
	ErrCodeClassifyFailed     ErrorCode = "CLS_001"
	ErrCodeScorerFailed       ErrorCode = "CLS_002"
	ErrCodeInvalidTopK        ErrorCode = "CLS_003"
	ErrCodeInvalidWeights     ErrorCode = "CLS_004"
)

// Penalty estimation error codes.
const (
	ErrCodePenaltyEstimateFailed ErrorCode = "PEN_001"
	ErrCodePenaltyContextInvalid ErrorCode = "PEN_002"
)

// Retrieval module error codes.
const (
	ErrCodeIndexNotInitialized ErrorCode = "RET_001"
	ErrCodeRetrievalFailed     ErrorCode = "RET_002"
	ErrCodeInvalidThreshold    ErrorCode = "RET_003"
	ErrCodeSnapshotCorrupt     ErrorCode = "RET_004"
)

// Signal-provider (model serving) error codes.
const (
	ErrCodeProviderUnavailable ErrorCode = "AI_001"
	ErrCodeInferenceFailed     ErrorCode = "AI_002"
	ErrCodeInferenceTimeout    ErrorCode = "AI_003"
	ErrCodeEmbeddingDimension  ErrorCode = "AI_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeUnknown:            http.StatusInternalServerError,

	ErrCodeOffenseNotFound:  http.StatusNotFound,
	ErrCodeOffenseInvalid:   http.StatusUnprocessableEntity,
	ErrCodeCaseNotFound:     http.StatusNotFound,
	ErrCodeCaseInvalid:      http.StatusUnprocessableEntity,
	ErrCodeCatalogEmpty:     http.StatusServiceUnavailable,
	ErrCodeDuplicateOffense: http.StatusConflict,
	ErrCodeDuplicateCaseID:  http.StatusConflict,

	ErrCodeClassifyFailed: http.StatusInternalServerError,
	ErrCodeScorerFailed:   http.StatusInternalServerError,
	ErrCodeInvalidTopK:    http.StatusBadRequest,
	ErrCodeInvalidWeights: http.StatusBadRequest,

	ErrCodePenaltyEstimateFailed: http.StatusInternalServerError,
	ErrCodePenaltyContextInvalid: http.StatusBadRequest,

	ErrCodeIndexNotInitialized: http.StatusServiceUnavailable,
	ErrCodeRetrievalFailed:     http.StatusInternalServerError,
	ErrCodeInvalidThreshold:    http.StatusBadRequest,
	ErrCodeSnapshotCorrupt:     http.StatusInternalServerError,

	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,
	ErrCodeInferenceFailed:     http.StatusInternalServerError,
	ErrCodeInferenceTimeout:    http.StatusGatewayTimeout,
	ErrCodeEmbeddingDimension:  http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessageQueueError:  "message queue error",
	ErrCodeUnknown:            "unknown error",

	ErrCodeOffenseNotFound:  "offense not found in catalog",
	ErrCodeOffenseInvalid:   "invalid offense record",
	ErrCodeCaseNotFound:     "case not found in corpus",
	ErrCodeCaseInvalid:      "invalid case record",
	ErrCodeCatalogEmpty:     "offense catalog is empty",
	ErrCodeDuplicateOffense: "duplicate offense code",
	ErrCodeDuplicateCaseID:  "duplicate case ID",

	ErrCodeClassifyFailed: "classification failed",
	ErrCodeScorerFailed:   "component scorer failed",
	ErrCodeInvalidTopK:    "top_k must be positive",
	ErrCodeInvalidWeights: "invalid ensemble weights",

	ErrCodePenaltyEstimateFailed: "penalty estimation failed",
	ErrCodePenaltyContextInvalid: "invalid penalty context",

	ErrCodeIndexNotInitialized: "embedding index not initialized",
	ErrCodeRetrievalFailed:     "case retrieval failed",
	ErrCodeInvalidThreshold:    "threshold must be within [0,1]",
	ErrCodeSnapshotCorrupt:     "embedding snapshot corrupt",

	ErrCodeProviderUnavailable: "signal provider unavailable",
	ErrCodeInferenceFailed:     "inference failed",
	ErrCodeInferenceTimeout:    "inference timed out",
	ErrCodeEmbeddingDimension:  "embedding dimension mismatch",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
