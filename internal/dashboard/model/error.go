package model

// ===== error response =====

// ErrorResponse is the error body returned to the UI.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Parameter string `json:"parameter,omitempty"`
	Value     string `json:"value,omitempty"`
}

// Error codes shared by the api and the view state.
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeInsufficientRole = "INSUFFICIENT_ROLE"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeBackendError     = "BACKEND_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL_ERROR"
)
