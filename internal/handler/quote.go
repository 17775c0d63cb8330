package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/quote"
	"github.com/ndquotes/quote-api/internal/handler/dto"
	"github.com/ndquotes/quote-api/internal/ierr"
	"github.com/ndquotes/quote-api/internal/service"
	"go.uber.org/zap"
)

type QuoteHandler struct {
	service *service.QuoteService
	logger  *zap.Logger
}

func NewQuoteHandler(service *service.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		logger:  logger.Named("QuoteHandler"),
	}
}

// ListPublished is the API-key-gated catalog listing.
func (h *QuoteHandler) ListPublished(c *gin.Context) {
	page, limit := parsePagination(c)

	quotes, total, err := h.service.ListPublished(c.Request.Context(), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteListResponse(quotes, total, page, limit))
}

func (h *QuoteHandler) Random(c *gin.Context) {
	q, err := h.service.Random(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

func (h *QuoteHandler) GetPublished(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	q, err := h.service.GetPublished(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// Admin surface below: full catalog including unpublished quotes.

func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind create quote request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: text and author are required", ierr.ErrValidation))
		return
	}

	isPublished := true
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}

	created, err := h.service.Create(c.Request.Context(), &quote.Quote{
		Text:        req.Text,
		Author:      req.Author,
		Source:      req.Source,
		Tags:        req.Tags,
		IsPublished: isPublished,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(created))
}

func (h *QuoteHandler) ListAll(c *gin.Context) {
	page, limit := parsePagination(c)

	params := quote.ListParams{
		Page:  page,
		Limit: limit,
		Tag:   c.Query("tag"),
	}
	if publishedStr, present := c.GetQuery("isPublished"); present {
		published := publishedStr == "true"
		params.IsPublished = &published
	}

	quotes, total, err := h.service.ListAll(c.Request.Context(), params)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteListResponse(quotes, total, page, limit))
}

func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	q, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

func (h *QuoteHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind update quote request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, quote.UpdateParams{
		Text:        req.Text,
		Author:      req.Author,
		Source:      req.Source,
		Tags:        req.Tags,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(updated))
}

func (h *QuoteHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *QuoteHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format for quote id", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid quote id format", ierr.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
