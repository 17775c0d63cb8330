package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ndquotes/quote-api/internal/domain/quote"
)

type CreateQuoteRequest struct {
	Text        string   `json:"text" binding:"required"`
	Author      string   `json:"author" binding:"required"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags"`
	IsPublished *bool    `json:"isPublished,omitempty"`
}

type UpdateQuoteRequest struct {
	Text        *string   `json:"text,omitempty"`
	Author      *string   `json:"author,omitempty"`
	Source      *string   `json:"source,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsPublished *bool     `json:"isPublished,omitempty"`
}

type QuoteResponse struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	Author      string    `json:"author"`
	Source      string    `json:"source,omitempty"`
	Tags        []string  `json:"tags"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewQuoteResponse(q *quote.Quote) *QuoteResponse {
	return &QuoteResponse{
		ID:          q.ID,
		Text:        q.Text,
		Author:      q.Author,
		Source:      q.Source,
		Tags:        q.Tags,
		IsPublished: q.IsPublished,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

type PaginationInfo struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

type QuoteListResponse struct {
	Data       []*QuoteResponse `json:"data"`
	Pagination PaginationInfo   `json:"pagination"`
}

func NewQuoteListResponse(quotes []*quote.Quote, total int64, page, limit int) *QuoteListResponse {
	data := make([]*QuoteResponse, len(quotes))
	for i, q := range quotes {
		data[i] = NewQuoteResponse(q)
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	return &QuoteListResponse{
		Data: data,
		Pagination: PaginationInfo{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}
}
