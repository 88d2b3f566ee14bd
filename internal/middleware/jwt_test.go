package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func mint(t *testing.T, method jwt.SigningMethod, key interface{}, claims JWTClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func validClaims() JWTClaims {
	return JWTClaims{
		Email: "ops@example.com",
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", JWTAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(ContextSubject), "role": c.GetString(ContextRole)})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	anonymous := validClaims()
	anonymous.Subject = ""

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + mint(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()), want: http.StatusOK},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token abc", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + mint(t, jwt.SigningMethodHS256, []byte("other"), validClaims()), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + mint(t, jwt.SigningMethodHS256, []byte(testSecret), expired), want: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + mint(t, jwt.SigningMethodHS256, []byte(testSecret), anonymous), want: http.StatusUnauthorized},
		{name: "other hmac", header: "Bearer " + mint(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims()), want: http.StatusUnauthorized},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status=%d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestJWTAuth_SetsContext(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if body := w.Body.String(); body != `{"role":"admin","subject":"user-1"}` {
		t.Fatalf("body=%s", body)
	}
}
