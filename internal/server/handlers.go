package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

var allowedImageTypes = []string{"image/png", "image/jpeg"}

type summarizeRequest struct {
	Text string `json:"text"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "clinote",
		"model":   s.opts.ModelName,
		"routes":  []string{"POST /summarize", "POST /ocr-summarize"},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": msgServiceReady})
}

func (s *Server) handleReady(c *gin.Context) {
	if err := s.pinger.Ping(c.Request.Context()); err != nil {
		s.log.WarnContext(c.Request.Context(), "Model service is not ready",
			"error", err,
			"model", s.opts.ModelName)

		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgServiceUnavailable})

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": msgServiceReady, "model": s.opts.ModelName})
}

func (s *Server) handleSummarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoText})

		return
	}

	summary, err := s.pipeline.SummarizeText(c.Request.Context(), req.Text)
	s.respond(c, summary, err)
}

func (s *Server) handleOCRSummarize(c *gin.Context) {
	image, status, msg := s.readUpload(c)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})

		return
	}

	summary, err := s.pipeline.SummarizeImage(c.Request.Context(), image)
	s.respond(c, summary, err)
}

func (s *Server) respond(c *gin.Context, summary string, err error) {
	if err != nil {
		_ = c.Error(err)

		status, msg := errorResponse(err, s.opts.ModelName)
		c.JSON(status, gin.H{"error": msg})

		return
	}

	c.JSON(http.StatusOK, summaryResponse{Summary: summary})
}

// readUpload returns the uploaded image bytes, or a non-zero status with the
// message to send back.
func (s *Server) readUpload(c *gin.Context) ([]byte, int, string) {
	limit := s.opts.MaxUploadBytes
	if c.Request.ContentLength > limit {
		return nil, http.StatusRequestEntityTooLarge, fileTooLargeMessage(limit)
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			return nil, http.StatusRequestEntityTooLarge, fileTooLargeMessage(limit)
		}

		// Browsers send an empty filename when nothing was chosen and
		// multipart parsing keeps such a part as a plain value.
		if errors.Is(err, http.ErrMissingFile) && hasFormValue(c.Request.MultipartForm, "file") {
			return nil, http.StatusBadRequest, msgNoFileSelected
		}

		return nil, http.StatusBadRequest, msgNoFileUploaded
	}

	if strings.TrimSpace(header.Filename) == "" {
		return nil, http.StatusBadRequest, msgNoFileSelected
	}

	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(header.Filename))]; !ok {
		return nil, http.StatusBadRequest, msgInvalidFileType
	}

	image, err := readFormFile(header)
	if err != nil {
		if isTooLarge(err) {
			return nil, http.StatusRequestEntityTooLarge, fileTooLargeMessage(limit)
		}

		s.log.ErrorContext(c.Request.Context(), "Failed to read uploaded file",
			"error", err,
			"fileBytes", header.Size)

		return nil, http.StatusBadRequest, msgNoFileUploaded
	}

	if detected := mimetype.Detect(image); !mimetype.EqualsAny(detected.String(), allowedImageTypes...) {
		s.log.InfoContext(c.Request.Context(), "Upload content is not a supported image",
			"mime", detected.String(),
			"fileBytes", len(image))

		return nil, http.StatusBadRequest, msgInvalidFileType
	}

	return image, 0, ""
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(f)
}

func hasFormValue(form *multipart.Form, key string) bool {
	if form == nil {
		return false
	}

	_, ok := form.Value[key]

	return ok
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}

	return strings.Contains(err.Error(), "request body too large")
}
