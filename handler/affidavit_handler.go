package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/Aashish23092/affidavit-ocr/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AffidavitProcessor is the part of the service the handler depends on.
type AffidavitProcessor interface {
	Process(ctx context.Context, data []byte, contentType, source string) (*dto.ExtractResponse, error)
}

type AffidavitHandler struct {
	processor   AffidavitProcessor
	maxFileSize int64
	logger      *zap.Logger
}

func NewAffidavitHandler(processor AffidavitProcessor, maxFileSize int64, logger *zap.Logger) *AffidavitHandler {
	return &AffidavitHandler{
		processor:   processor,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Extract handles the POST /affidavits/extract endpoint
func (h *AffidavitHandler) Extract(c *gin.Context) {
	var request dto.AffidavitExtractRequest
	if err := c.ShouldBind(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", dto.ErrMissingFile)
		return
	}

	if err := request.Validate(h.maxFileSize); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	file, err := request.File.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	h.logger.Info("http.extract.received",
		zap.String("filename", request.File.Filename),
		zap.Int("bytes", len(data)),
	)

	contentType := dto.ContentTypeFor(request.File.Filename)
	response, err := h.processor.Process(c.Request.Context(), data, contentType, request.File.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoEvidence):
			h.sendError(c, http.StatusUnprocessableEntity, "NO_EVIDENCE", err)
		case errors.Is(err, service.ErrOCRFailed):
			h.sendError(c, http.StatusBadGateway, "OCR_FAILED", err)
		default:
			h.sendError(c, http.StatusInternalServerError, "EXTRACTION_FAILED", err)
		}
		return
	}

	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *AffidavitHandler) sendError(c *gin.Context, statusCode int, code string, err error) {
	h.logger.Warn("http.extract.error", zap.Int("status", statusCode), zap.String("code", code), zap.Error(err))

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    statusCode,
	})
}
