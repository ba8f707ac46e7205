package errors

import "fmt"

// ErrorCode represents a Pith error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrInvalidUpdate      ErrorCode = "INVALID_UPDATE"      // 400
	ErrUnknownSession     ErrorCode = "UNKNOWN_SESSION"     // 404
	ErrQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"      // 429
	ErrInternal           ErrorCode = "INTERNAL"            // 500
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE" // 503
)

// PithError represents a structured error with code, status, and details.
type PithError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PithError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PithError {
	return &PithError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidUpdate creates a 400 error for a mutation with no recognized
// fields to change. Rejected before any write.
func NewInvalidUpdate(msg string) *PithError {
	return &PithError{
		Code:    ErrInvalidUpdate,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownSession creates a 404 error for feedback or lookups referencing
// a session id that was never recorded.
func NewUnknownSession(sessionID string) *PithError {
	return &PithError{
		Code:    ErrUnknownSession,
		Status:  404,
		Message: fmt.Sprintf("unknown session: %s", sessionID),
		Details: map[string]any{"session_id": sessionID},
	}
}

// NewQuotaExceeded creates a 429 error when an agent's daily allowance is
// exhausted. Remaining, limit, and tier are carried so the caller can act.
func NewQuotaExceeded(agentID, tier string, limit int) *PithError {
	return &PithError{
		Code:    ErrQuotaExceeded,
		Status:  429,
		Message: fmt.Sprintf("daily compression limit reached for agent %q", agentID),
		Details: map[string]any{
			"agent_id":  agentID,
			"tier":      tier,
			"limit":     limit,
			"remaining": 0,
		},
	}
}

// NewStorageUnavailable creates a 503 error when the persistence layer is
// unreachable. The engine performs no compression without durable access.
func NewStorageUnavailable(err error) *PithError {
	msg := "storage unavailable"
	if err != nil {
		msg = fmt.Sprintf("storage unavailable: %v", err)
	}
	return &PithError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *PithError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PithError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a PithError with the given code.
func Is(err error, code ErrorCode) bool {
	if pErr, ok := err.(*PithError); ok {
		return pErr.Code == code
	}
	return false
}
