package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vantran/workchat/internal/storage"
)

type UploadHandler struct {
	uploader storage.Uploader
}

func NewUploadHandler(uploader storage.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// UploadFile validates and stores a multipart file, returning the URL
// to reference in a message. Large images get a compress hint so the
// client shrinks before sending next time.
func (h *UploadHandler) UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := storage.Validate(contentType, header.Size); err != nil {
		var verr *storage.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	url, stored, err := h.uploader.Upload(header.Filename, header.Size, f)
	if err != nil {
		var verr *storage.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":           url,
		"file_name":     header.Filename,
		"file_size":     stored,
		"compress_hint": stored > storage.CompressThreshold,
	})
}
