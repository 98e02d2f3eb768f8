package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	testSecret  = "test-secret"
	testAdminID = int64(777)
)

func testValidator() TokenValidator {
	return service.NewAdminService(testAdminID, "", testSecret, time.Hour)
}

func signToken(t *testing.T, telegramID int64, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := &service.Claims{
		TelegramID: telegramID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)
	handler := AuthMiddleware(testValidator(), zap.NewNop())(okHandler())

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			req := httptest.NewRequest(method, "/api/admin/"+pathSuffix, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "PATCH", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_InvalidTokenFormatRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)
	handler := AuthMiddleware(testValidator(), zap.NewNop())(okHandler())

	properties.Property("garbage bearer tokens are rejected", prop.ForAll(
		func(invalidToken string) bool {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+invalidToken)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidAdminTokenReachesHandler(t *testing.T) {
	var gotID int64
	var gotRole string
	handler := AuthMiddleware(testValidator(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetAdminID(r.Context())
		gotRole, _ = GetUserRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testAdminID, service.RoleAdmin, time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testAdminID, gotID)
	assert.Equal(t, service.RoleAdmin, gotRole)
}

func TestAuthRejectsExpiredAndForeignTokens(t *testing.T) {
	handler := AuthMiddleware(testValidator(), zap.NewNop())(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"expired", "Bearer " + signToken(t, testAdminID, service.RoleAdmin, -time.Hour)},
		{"other admin", "Bearer " + signToken(t, testAdminID+1, service.RoleAdmin, time.Hour)},
		{"missing bearer prefix", signToken(t, testAdminID, service.RoleAdmin, time.Hour)},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAdminNeedsAuthenticatedRole(t *testing.T) {
	guarded := RequireAdmin(zap.NewNop())(okHandler())

	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	chain := AuthMiddleware(testValidator(), zap.NewNop())(guarded)
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testAdminID, service.RoleAdmin, time.Hour))
	w = httptest.NewRecorder()
	chain.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
