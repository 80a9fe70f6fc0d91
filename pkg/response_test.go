package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestErrorMapsDomainErrorsToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrConflict, http.StatusConflict},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrUpstream, http.StatusBadGateway},
		{errors.New("bilinmeyen"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		Error(w, tt.err)
		if w.Code != tt.status {
			t.Errorf("Error(%v) status = %d, want %d", tt.err, w.Code, tt.status)
		}
	}
}

func TestErrorMatchesWrappedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, fmt.Errorf("%w: invitation already exists", ErrConflict))

	if w.Code != http.StatusConflict {
		t.Errorf("wrapped conflict status = %d, want %d", w.Code, http.StatusConflict)
	}

	var resp APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("error responses must have success=false")
	}
	if resp.Error == "" {
		t.Error("error message should be present")
	}
}

func TestJSONEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"id": "abc"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	var resp APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("success should be true")
	}
}
