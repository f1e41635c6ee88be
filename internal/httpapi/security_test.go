package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"email":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
}

func TestMutationWithoutCSRFTokenRejected(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := mustLogin(t, handler, "vendedor@loja.local", "vendedor123")

	body, _ := json.Marshal(domain.TransactionRequest{
		FaturaNumero:  "FAT-CSRF",
		TipoTransacao: domain.TransacaoVenda,
		Itens: []domain.TransactionItem{
			{VariantID: "var-cam-preta-m", Quantidade: 1, PrecoUnitarioCents: 4990},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transacoes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()

	handler.ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", res.Code)
	}
}

func TestCSRFExemptsLoginAndSignup(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	// Login has no CSRF header and must still be processed.
	rec := postJSON(t, handler, "/api/v1/auth/login", "", "", map[string]string{
		"email":    "admin@loja.local",
		"password": "admin123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login to bypass csrf, got %d", rec.Code)
	}
}

func TestCSRFTokenValidatesAcrossHourBoundary(t *testing.T) {
	api := newTestAPI(t)

	prevBucket := time.Now().UTC().Truncate(time.Hour).Unix() - 3600
	previousHour := api.csrfTokenForHour(prevBucket)
	if !api.validateCSRFToken(previousHour) {
		t.Fatalf("expected previous-hour token to remain valid")
	}
	if api.validateCSRFToken("bogus-token") {
		t.Fatalf("expected bogus token to be rejected")
	}
}

func TestCORSPreflightAllowed(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transacoes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", res.Code)
	}
	if got := res.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
		t.Fatalf("expected DELETE in allowed methods, got %q", got)
	}
}

func TestUnknownErrorsMapToGeneric500(t *testing.T) {
	infraErr := errors.New("driver: bad connection")
	status := statusForError(infraErr)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unknown error, got %d", status)
	}

	res := httptest.NewRecorder()
	writeError(res, status, infraErr)
	if strings.Contains(res.Body.String(), "bad connection") {
		t.Fatalf("expected generic body, got %s", res.Body.String())
	}
}

func TestBusinessErrorsKeepTheirStatus(t *testing.T) {
	cases := map[error]int{
		store.ErrDuplicateInvoice:     http.StatusConflict,
		store.ErrInsufficientStock:    http.StatusConflict,
		store.ErrInvalidTransaction:   http.StatusBadRequest,
		store.ErrNotFound:             http.StatusNotFound,
		store.ErrOriginalSaleNotFound: http.StatusNotFound,
		store.ErrEmployeeInactive:     http.StatusForbidden,
	}
	for err, want := range cases {
		if got := statusForError(fmt.Errorf("wrapped: %w", err)); got != want {
			t.Fatalf("expected %d for %v, got %d", want, err, got)
		}
	}
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("9999", 50, 200); got != 200 {
		t.Fatalf("expected capped limit 200, got %d", got)
	}
	if got := parsePositiveLimit("", 50, 200); got != 50 {
		t.Fatalf("expected fallback limit 50, got %d", got)
	}
	if got := parsePositiveLimit("invalid", 50, 200); got != 50 {
		t.Fatalf("expected fallback on invalid input, got %d", got)
	}
}
