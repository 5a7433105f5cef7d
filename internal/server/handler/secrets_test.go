package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tracelight/casegate/internal/broker"
)

func secretsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	b := broker.New(map[string]string{
		"maps-api-key": "AIza-test-value",
	}, "open-sesame")
	r := gin.New()
	r.GET("/v1/secrets/:name", HandleGetSecret(b))
	r.POST("/v1/secrets/verify-auth-password", HandleVerifyPassword(b))
	return r
}

func TestGetSecret(t *testing.T) {
	r := secretsRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/secrets/maps-api-key", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "AIza-test-value" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestGetSecret_Unknown(t *testing.T) {
	r := secretsRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/secrets/database-password", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "AIza") {
		t.Error("error body leaked a secret value")
	}
}

func TestVerifyPassword(t *testing.T) {
	r := secretsRouter()

	tests := []struct {
		name string
		body string
		ok   string
	}{
		{"correct", `{"password":"open-sesame"}`, `"ok":true`},
		{"wrong", `{"password":"guess"}`, `"ok":false`},
		{"empty", `{"password":""}`, `"ok":false`},
		{"missing field", `{}`, `"ok":false`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/secrets/verify-auth-password", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.ok) {
				t.Errorf("body = %s, want %s", w.Body.String(), tt.ok)
			}
		})
	}
}

func TestVerifyPassword_BadJSON(t *testing.T) {
	r := secretsRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/secrets/verify-auth-password", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}
