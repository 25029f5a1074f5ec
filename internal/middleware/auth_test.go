package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"docvault/internal/domain/models"
	"docvault/internal/httputil"
)

type stubVerifier struct {
	claims *models.Claims
	err    error
}

func (v *stubVerifier) VerifyToken(_ string) (*models.Claims, error) {
	return v.claims, v.err
}

func (v *stubVerifier) Close() error { return nil }

func validClaims(t *testing.T, orgID uuid.UUID) *models.Claims {
	t.Helper()
	claims := &models.Claims{OrgID: orgID.String()}
	claims.Subject = uuid.NewString()
	return claims
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(&stubVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: fmt.Errorf("signature mismatch")}
	handler := Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthStoresActor(t *testing.T) {
	org := uuid.New()
	verifier := &stubVerifier{claims: validClaims(t, org)}

	var seen *models.Actor
	handler := Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetActor(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen == nil {
		t.Fatal("actor missing from request context")
	}
	if seen.OrgID == nil || *seen.OrgID != org {
		t.Errorf("actor org = %v, want %s", seen.OrgID, org)
	}
}

func TestAuthExemptsHealth(t *testing.T) {
	called := false
	handler := Auth(&stubVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("health check was blocked by auth")
	}
}
