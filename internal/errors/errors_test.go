package errors

import (
	"errors"
	"testing"
)

func TestErrorInterface(t *testing.T) {
	err := NewInvalidRequest("text is required")
	if err.Error() != "INVALID_REQUEST: text is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNewQuotaExceeded(t *testing.T) {
	err := NewQuotaExceeded("agent-1", "free", 100)
	if err.Code != ErrQuotaExceeded {
		t.Errorf("Code = %q, want QUOTA_EXCEEDED", err.Code)
	}
	if err.Status != 429 {
		t.Errorf("Status = %d, want 429", err.Status)
	}
	if err.Details["limit"] != 100 {
		t.Errorf("Details[limit] = %v, want 100", err.Details["limit"])
	}
	if err.Details["remaining"] != 0 {
		t.Errorf("Details[remaining] = %v, want 0", err.Details["remaining"])
	}
	if err.Details["tier"] != "free" {
		t.Errorf("Details[tier] = %v, want free", err.Details["tier"])
	}
}

func TestNewUnknownSession(t *testing.T) {
	err := NewUnknownSession("01ABC")
	if err.Code != ErrUnknownSession || err.Status != 404 {
		t.Errorf("got code=%q status=%d", err.Code, err.Status)
	}
	if err.Details["session_id"] != "01ABC" {
		t.Errorf("Details[session_id] = %v", err.Details["session_id"])
	}
}

func TestNewStorageUnavailable(t *testing.T) {
	err := NewStorageUnavailable(errors.New("database is locked"))
	if err.Code != ErrStorageUnavailable || err.Status != 503 {
		t.Errorf("got code=%q status=%d", err.Code, err.Status)
	}

	// nil cause still produces a usable message
	err = NewStorageUnavailable(nil)
	if err.Message != "storage unavailable" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestIs(t *testing.T) {
	err := NewInvalidUpdate("no fields set")
	if !Is(err, ErrInvalidUpdate) {
		t.Error("Is should match INVALID_UPDATE")
	}
	if Is(err, ErrQuotaExceeded) {
		t.Error("Is should not match QUOTA_EXCEEDED")
	}
	if Is(errors.New("plain"), ErrInternal) {
		t.Error("Is should not match plain errors")
	}
}
