package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"secondbrain/internal/core"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/accounts/a1").
		Data(map[string]string{"id": "a1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/accounts/a1" {
		t.Errorf("Location = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["id"] != "a1" {
		t.Errorf("Body = %q (%v)", w.Body.String(), err)
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Data("ignored").Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d with body %q", w.Code, w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data(make(chan int)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{core.Invalid("amount", core.ErrInvalidAmount), http.StatusUnprocessableEntity, "validation_failed"},
		{fmt.Errorf("account %q: %w", "x", core.ErrNotFound), http.StatusNotFound, "not_found"},
		{core.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
		{core.ErrInsufficientSavings, http.StatusConflict, "insufficient_savings"},
		{core.ErrConfirmationRequired, http.StatusConflict, "confirmation_required"},
		{core.ErrReferentialIntegrity, http.StatusConflict, "referential_integrity"},
		{core.ErrImmutableTransfer, http.StatusConflict, "immutable_transfer"},
		{core.ErrReservedCategory, http.StatusConflict, "reserved_category"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		status, code := errorStatus(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("errorStatus(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)

	w := httptest.NewRecorder()
	writeError(w, r, core.Invalid("accountId", core.ErrMissingReference))
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusUnprocessableEntity || body.Field != "accountId" || body.Code != "validation_failed" {
		t.Errorf("unexpected validation response %d %+v", w.Code, body)
	}

	w = httptest.NewRecorder()
	writeError(w, r, errors.New("sqlite: database is locked"))
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusInternalServerError || body.Error != "internal error" {
		t.Errorf("internal details leaked: %d %+v", w.Code, body)
	}
}
