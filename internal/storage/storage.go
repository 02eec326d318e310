// Package storage is the object storage boundary for message files.
package storage

import (
	"fmt"
	"io"
)

// CompressThreshold is the size above which image uploads should be
// compressed client-side before hitting the wire. The server only
// surfaces the constant; compression itself happens in the collaborator
// that owns the raw bytes.
const CompressThreshold = 500 * 1024

// MaxUploadSize caps a single upload.
const MaxUploadSize = 50 * 1024 * 1024

// AllowedTypes lists the accepted content types. Anything else is
// rejected before a byte is written.
var AllowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"application/zip": true,
	"text/plain":      true,
	"text/csv":        true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

// ValidationError rejects an upload before any write happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate checks size and content type ahead of the write.
func Validate(contentType string, size int64) error {
	if size <= 0 {
		return &ValidationError{Reason: "file is empty"}
	}
	if size > MaxUploadSize {
		return &ValidationError{Reason: fmt.Sprintf("file exceeds %d bytes", MaxUploadSize)}
	}
	if !AllowedTypes[contentType] {
		return &ValidationError{Reason: "file type not allowed: " + contentType}
	}
	return nil
}

// Uploader stores a file and returns its public URL and stored size.
type Uploader interface {
	Upload(name string, size int64, r io.Reader) (url string, stored int64, err error)
}
