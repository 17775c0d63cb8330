package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/handler/dto"
	"github.com/ndquotes/quote-api/internal/ierr"
	"github.com/ndquotes/quote-api/internal/service"
	"go.uber.org/zap"
)

type KeyRequestHandler struct {
	service *service.KeyRequestService
	logger  *zap.Logger
}

func NewKeyRequestHandler(service *service.KeyRequestService, logger *zap.Logger) *KeyRequestHandler {
	return &KeyRequestHandler{
		service: service,
		logger:  logger.Named("KeyRequestHandler"),
	}
}

func (h *KeyRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitKeyRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind key request submission", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: name, email, and usage description are required", ierr.ErrValidation))
		return
	}

	created, err := h.service.Submit(c.Request.Context(), req.Name, req.Email, req.Usage)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("Key request submitted", zap.String("id", created.ID.String()))
	c.JSON(http.StatusCreated, dto.SubmitKeyRequestResponse{ID: created.ID})
}

func (h *KeyRequestHandler) List(c *gin.Context) {
	requests, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	responses := make([]*dto.KeyRequestResponse, len(requests))
	for i, req := range requests {
		responses[i] = dto.NewKeyRequestResponse(req)
	}
	c.JSON(http.StatusOK, responses)
}

func (h *KeyRequestHandler) Approve(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("Key request approved via handler",
		zap.String("request_id", result.RequestID.String()),
		zap.String("api_key_id", result.APIKeyID.String()),
		zap.Bool("email_sent", result.EmailSent))

	c.JSON(http.StatusOK, dto.ApproveKeyRequestResponse{
		RequestID: result.RequestID,
		APIKeyID:  result.APIKeyID,
		EmailSent: result.EmailSent,
	})
}

func (h *KeyRequestHandler) Reject(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.service.Reject(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("Key request rejected via handler",
		zap.String("request_id", result.RequestID.String()),
		zap.Bool("email_sent", result.EmailSent))

	c.JSON(http.StatusOK, dto.RejectKeyRequestResponse{
		RequestID: result.RequestID,
		EmailSent: result.EmailSent,
	})
}

func (h *KeyRequestHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format for key request id", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid key request id format", ierr.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}
