package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testJWTKey = []byte("test-secret")

func signTestToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("не удалось подписать токен: %v", err)
	}
	return token
}

func authProtectedHandler(t *testing.T, wantUserID uint, wantEmail string) http.Handler {
	return AuthMiddleware(testJWTKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, email, err := GetUserFromContext(r)
		if err != nil {
			t.Errorf("GetUserFromContext вернул ошибку: %v", err)
		}
		if userID != wantUserID || email != wantEmail {
			t.Errorf("контекст содержит %d/%s, ожидалось %d/%s", userID, email, wantUserID, wantEmail)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	token := signTestToken(t, testJWTKey, jwt.MapClaims{
		"user_id": 7,
		"email":   "ivan@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	authProtectedHandler(t, 7, "ivan@example.com").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался 200, получен %d", rec.Code)
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/transactions", nil)
	rec := httptest.NewRecorder()

	authProtectedHandler(t, 0, "").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался 401 без заголовка Authorization, получен %d", rec.Code)
	}
}

func TestAuthMiddlewareWrongKey(t *testing.T) {
	token := signTestToken(t, []byte("другой-секрет"), jwt.MapClaims{
		"user_id": 7,
		"email":   "ivan@example.com",
	})

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	authProtectedHandler(t, 0, "").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался 401 для чужой подписи, получен %d", rec.Code)
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	token := signTestToken(t, testJWTKey, jwt.MapClaims{
		"user_id": 7,
		"email":   "ivan@example.com",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	authProtectedHandler(t, 0, "").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался 401 для просроченного токена, получен %d", rec.Code)
	}
}

func TestAuthMiddlewareGarbageToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer не.токен.вовсе")
	rec := httptest.NewRecorder()

	authProtectedHandler(t, 0, "").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался 401 для мусорного токена, получен %d", rec.Code)
	}
}
