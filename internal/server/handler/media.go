package handler

import (
	"bytes"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tracelight/casegate/internal/signer"
)

// mediaClient talks to the CDN API. Uploads can be large, hence the long
// timeout relative to the other upstream calls.
var mediaClient = &http.Client{Timeout: 2 * time.Minute}

// HandleMediaUpload handles POST /v1/media. The multipart payload is rebuilt
// and forwarded to the CDN upload API with isPrivateFile forced on, so every
// stored asset requires a signed URL to read. The CDN's JSON response and
// status are relayed to the caller as-is.
func HandleMediaUpload(uploadURL, cdnKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request must be multipart/form-data"})
			return
		}

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		for field, values := range form.Value {
			if field == "isPrivateFile" {
				continue
			}
			for _, v := range values {
				if err := w.WriteField(field, v); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload"})
					return
				}
			}
		}
		if err := w.WriteField("isPrivateFile", "true"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload"})
			return
		}
		if len(form.Value["fileName"]) == 0 {
			if err := w.WriteField("fileName", uuid.NewString()); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload"})
				return
			}
		}

		for field, files := range form.File {
			for _, fh := range files {
				src, err := fh.Open()
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
					return
				}
				dst, err := w.CreateFormFile(field, fh.Filename)
				if err == nil {
					_, err = io.Copy(dst, src)
				}
				src.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload"})
					return
				}
			}
		}

		if err := w.Close(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload"})
			return
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, uploadURL, &buf)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload"})
			return
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.SetBasicAuth(cdnKey, "")

		relayMedia(c, req)
	}
}

// HandleMediaDelete handles DELETE /v1/media/:asset_id by forwarding the
// deletion to the CDN API and relaying its response.
func HandleMediaDelete(deleteURL, cdnKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID := c.Param("asset_id")
		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodDelete, deleteURL+"/"+assetID, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare deletion"})
			return
		}
		req.SetBasicAuth(cdnKey, "")

		relayMedia(c, req)
	}
}

// HandleMediaSign handles GET /v1/media/sign/*path. The response is the bare
// signed URL as text; signing is local, no CDN round trip.
func HandleMediaSign(s *signer.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Param("path")
		c.String(http.StatusOK, s.Sign(path, time.Now()))
	}
}

// relayMedia performs the CDN request and copies status, content type and body
// back to the caller. Transport failures never leak upstream detail.
func relayMedia(c *gin.Context, req *http.Request) {
	resp, err := mediaClient.Do(req)
	if err != nil {
		log.Printf("media upstream %s %s error: %v", req.Method, req.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "media upstream unavailable"})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("media upstream read error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "media upstream unavailable"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, body)
}
