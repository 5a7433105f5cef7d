package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var captchaClient = &http.Client{Timeout: 10 * time.Second}

type captchaRequest struct {
	Token string `json:"token"`
}

// upstreamVerdict is the subset of the verification provider's response the
// proxy cares about.
type upstreamVerdict struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// HandleCaptchaVerify handles POST /v1/captcha. It relays the client token to
// the verification provider along with the server-held secret and returns a
// normalized verdict. Upstream outages and malformed upstream replies are a
// generic 500; the raw detail goes to the log only.
func HandleCaptchaVerify(secret, verifyURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req captchaRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing captcha token"})
			return
		}

		form := url.Values{
			"secret":   {secret},
			"response": {req.Token},
			"remoteip": {c.ClientIP()},
		}

		resp, err := captchaClient.PostForm(verifyURL, form)
		if err != nil {
			log.Printf("captcha verify request error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "verification unavailable"})
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Printf("captcha verify read error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "verification unavailable"})
			return
		}

		var verdict upstreamVerdict
		if err := json.Unmarshal(body, &verdict); err != nil {
			log.Printf("captcha verify bad upstream response (status %d): %s", resp.StatusCode, body)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "verification unavailable"})
			return
		}

		if !verdict.Success {
			out := gin.H{"success": false}
			if len(verdict.ErrorCodes) > 0 {
				out["error"] = strings.Join(verdict.ErrorCodes, ", ")
			}
			c.JSON(http.StatusOK, out)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
