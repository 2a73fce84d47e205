package dto

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrMissingFile       = errors.New("file is required")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// AffidavitExtractRequest represents the incoming request
type AffidavitExtractRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// Validate performs basic validation on the request
func (r *AffidavitExtractRequest) Validate(maxSize int64) error {
	if r.File == nil {
		return ErrMissingFile
	}
	if maxSize > 0 && r.File.Size > maxSize {
		return errors.New("file exceeds maximum allowed size")
	}
	if ContentTypeFor(r.File.Filename) == "" {
		return ErrUnsupportedFormat
	}
	return nil
}

// ContentTypeFor maps a file name to one of the accepted document types.
// An empty string means the format is not supported.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return ""
}
