// Package httpapi serves extraction and question answering over HTTP for
// clients that upload a PDF instead of naming a file on the server.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-qa/internal/pdf"
	"github.com/a3tai/mcp-pdf-qa/internal/qa"
)

const (
	fileField = "file"

	// room for multipart boundaries, part headers and form fields
	multipartOverhead = 1 << 20
)

// Service is the part of pdf.Service the handlers call
type Service interface {
	ExtractReader(ctx context.Context, name string, r io.Reader) (*pdf.PDFExtractResult, error)
	AskReader(ctx context.Context, name string, r io.Reader, question string, history []qa.Turn) (*pdf.PDFAskResult, error)
}

var _ Service = (*pdf.Service)(nil)

// Handler holds the routes of the upload API
type Handler struct {
	service     Service
	maxFileSize int64
	version     string
	logger      logrus.FieldLogger
}

// NewHandler creates the upload API. Uploads larger than maxFileSize are
// rejected with 413.
func NewHandler(service Service, maxFileSize int64, version string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		service:     service,
		maxFileSize: maxFileSize,
		version:     version,
		logger:      logger,
	}
}

// Router builds the gin engine with CORS and request logging
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", h.Health)
	r.POST("/extract", h.Extract)
	r.POST("/ask", h.Ask)

	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Extract returns the text and tables of the uploaded PDF
func (h *Handler) Extract(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	upload, name, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer upload.Close()

	res, err := h.service.ExtractReader(c.Request.Context(), name, upload)
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Ask answers the form's question about the uploaded PDF
func (h *Handler) Ask(c *gin.Context) {
	if !h.parseForm(c) {
		return
	}

	question := strings.TrimSpace(c.PostForm("question"))
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	var history []qa.Turn
	if raw := c.PostForm("history"); strings.TrimSpace(raw) != "" {
		var err error
		if history, err = qa.ParseHistory(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	upload, name, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer upload.Close()

	res, err := h.service.AskReader(c.Request.Context(), name, upload, question, history)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, pdf.ErrEmptyQuestion) {
			status = http.StatusBadRequest
		}
		h.fail(c, status, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// parseForm reads the multipart body under a size cap and writes the error
// response itself when it returns false
func (h *Handler) parseForm(c *gin.Context) bool {
	limit := h.maxFileSize + multipartOverhead
	if c.Request.ContentLength > limit {
		h.tooLarge(c, limit)
		return false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	err := c.Request.ParseMultipartForm(h.maxFileSize)
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return true
	case errors.As(err, &maxBytes):
		h.tooLarge(c, limit)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid form: %v", err)})
	}
	return false
}

func (h *Handler) tooLarge(c *gin.Context, limit int64) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("request body too large (max: %d bytes)", limit),
	})
}

// openUpload checks the multipart file and writes the error response itself
// when it returns false
func (h *Handler) openUpload(c *gin.Context) (io.ReadCloser, string, bool) {
	file, header, err := c.Request.FormFile(fileField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fileField + " is required"})
		return nil, "", false
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		file.Close()
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is not a PDF file", header.Filename)})
		return nil, "", false
	}
	if header.Size > h.maxFileSize {
		file.Close()
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file too large: %d bytes (max: %d bytes)", header.Size, h.maxFileSize),
		})
		return nil, "", false
	}

	return file, filepath.Base(header.Filename), true
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	h.logger.WithError(err).WithField("path", c.FullPath()).Warn("Request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Handled request")
	}
}
