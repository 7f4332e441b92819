package handlers

import (
	"net/http"
	"strings"

	"github.com/bz888/tsdr/internal/api/server/client"
	"github.com/bz888/tsdr/internal/prompt"
	"github.com/bz888/tsdr/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// FailedMessage stays English and fixed; clients localize using the code field.
	FailedMessage       = "Failed to generate expanded text"
	TextRequiredMessage = "Text is required"
)

type Handler struct {
	completer client.Completer
	logger    *zap.Logger
}

func NewHandler(completer client.Completer, logger *zap.Logger) *Handler {
	return &Handler{
		completer: completer,
		logger:    logger,
	}
}

// Generate serves POST /api/generate.
func (h *Handler) Generate(c *gin.Context) {
	var req client.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid generate request body", zap.Error(err))
		h.reject(c, errors.NewValidationError(TextRequiredMessage, "text", nil).WithCause(err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.reject(c, errors.NewValidationError(TextRequiredMessage, "text", req.Text).AppError)
		return
	}
	if req.Language == "" {
		req.Language = prompt.DefaultLanguage
	}

	messages := prompt.Compose(req.Text, req.Language)

	result, err := h.completer.Complete(c.Request.Context(), messages)
	if err != nil {
		h.logger.Error("Failed to generate expanded text",
			zap.String("provider", h.completer.Name()),
			zap.String("language", req.Language),
			zap.String("code", errors.CodeOf(err)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, client.GenerateResponse{
			Result: FailedMessage,
			Code:   errors.CodeOf(err),
		})
		return
	}

	h.logger.Info("Generated expanded text",
		zap.String("language", req.Language),
		zap.Int("input_length", len(req.Text)),
		zap.Int("result_length", len(result)),
	)
	c.JSON(http.StatusOK, client.GenerateResponse{Result: result})
}

func (h *Handler) reject(c *gin.Context, err *errors.AppError) {
	c.JSON(err.StatusCode, client.GenerateResponse{
		Result: err.Message,
		Code:   err.Code,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": h.completer.Name(),
	})
}

func (h *Handler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": prompt.Languages(),
		"default":   prompt.DefaultLanguage,
	})
}
