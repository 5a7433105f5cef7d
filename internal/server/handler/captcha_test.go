package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captchaPost(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/captcha", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCaptchaVerify_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotSecret, gotResponse string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSecret = r.FormValue("secret")
		gotResponse = r.FormValue("response")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"challenge_ts":"2026-09-01T10:00:00Z","hostname":"lab.example.com"}`))
	}))
	defer upstream.Close()

	r := gin.New()
	r.POST("/v1/captcha", HandleCaptchaVerify("srv-secret", upstream.URL))

	w := captchaPost(r, `{"token":"client-token"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, "srv-secret", gotSecret)
	assert.Equal(t, "client-token", gotResponse)
}

func TestCaptchaVerify_Failure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer upstream.Close()

	r := gin.New()
	r.POST("/v1/captcha", HandleCaptchaVerify("srv-secret", upstream.URL))

	w := captchaPost(r, `{"token":"stale-token"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"invalid-input-response"}`, w.Body.String())
}

func TestCaptchaVerify_MissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/captcha", HandleCaptchaVerify("srv-secret", "http://unused.invalid"))

	for _, body := range []string{`{}`, `{"token":""}`, `{"token":"   "}`, `not json`} {
		w := captchaPost(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestCaptchaVerify_BadUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream exploded</html>"))
	}))
	defer upstream.Close()

	r := gin.New()
	r.POST("/v1/captcha", HandleCaptchaVerify("srv-secret", upstream.URL))

	w := captchaPost(r, `{"token":"client-token"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Upstream detail stays out of the client-facing body.
	assert.NotContains(t, w.Body.String(), "exploded")
	assert.JSONEq(t, `{"success":false,"error":"verification unavailable"}`, w.Body.String())
}

func TestCaptchaVerify_UpstreamDown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	r := gin.New()
	r.POST("/v1/captcha", HandleCaptchaVerify("srv-secret", upstream.URL))

	w := captchaPost(r, `{"token":"client-token"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
