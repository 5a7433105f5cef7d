package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tracelight/casegate/internal/docstore"
)

// documentFileName is the only object name the document endpoints serve;
// every path must end with it.
const documentFileName = "data.json"

// emptyCollection is what a GET returns for a path nothing has written yet, so
// clients can treat first reads like any other read.
var emptyCollection = []byte("[]")

// docPath extracts and validates the wildcard document path. It returns "" and
// writes a 400 when the path is unusable.
func docPath(c *gin.Context) string {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" || !strings.HasSuffix(path, documentFileName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document path must end with " + documentFileName})
		return ""
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document path"})
			return ""
		}
	}
	return path
}

// HandleGetDocument handles GET /v1/documents/*path. A path nothing has
// written yet reads as an empty collection, not an error.
func HandleGetDocument(docs docstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := docPath(c)
		if path == "" {
			return
		}

		data, err := docs.Get(c.Request.Context(), path)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				c.Data(http.StatusOK, "application/json", emptyCollection)
				return
			}
			log.Printf("document get %q error: %v", path, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve document"})
			return
		}

		c.Data(http.StatusOK, "application/json", data)
	}
}

// HandleHeadDocument handles HEAD /v1/documents/*path. Unlike GET there is no
// empty-collection default: existence checks need the honest answer.
func HandleHeadDocument(docs docstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := docPath(c)
		if path == "" {
			return
		}

		meta, err := docs.Stat(c.Request.Context(), path)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				c.Status(http.StatusNotFound)
				return
			}
			log.Printf("document stat %q error: %v", path, err)
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Header("Content-Type", "application/json")
		c.Header("Content-Length", strconv.FormatInt(meta.Size, 10))
		c.Header("Last-Modified", meta.LastModified.UTC().Format(http.TimeFormat))
		if meta.ETag != "" {
			c.Header("ETag", `"`+meta.ETag+`"`)
		}
		c.Status(http.StatusOK)
	}
}

// HandlePutDocument handles PUT /v1/documents/*path. The body replaces the
// stored object wholesale; merging is the client's job.
func HandlePutDocument(docs docstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := docPath(c)
		if path == "" {
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		if !json.Valid(body) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be valid JSON"})
			return
		}

		if err := docs.Put(c.Request.Context(), path, body); err != nil {
			log.Printf("document put %q error: %v", path, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store document"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "stored", "path": path})
	}
}

// HandleDeleteDocument handles DELETE /v1/documents/*path.
func HandleDeleteDocument(docs docstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := docPath(c)
		if path == "" {
			return
		}

		if err := docs.Delete(c.Request.Context(), path); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Printf("document delete %q error: %v", path, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "deleted", "path": path})
	}
}
