package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/medscanhq/medscan-api/pkg/apperror"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PageMeta is the pagination metadata block returned alongside list data.
type PageMeta struct {
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	CurrentPage int  `json:"current_page"`
}

// PaginatedResponse wraps list data with its page metadata.
type PaginatedResponse struct {
	Data     interface{} `json:"data"`
	Metadata PageMeta    `json:"metadata"`
}

// NewPageMeta computes page metadata from the matched row count and limit.
func NewPageMeta(total, page, limit int) PageMeta {
	totalPages := (total + limit - 1) / limit
	return PageMeta{
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
		CurrentPage: page,
	}
}

// OK sends a success response
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created sends a 201 success response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Paginated sends list data with its page metadata.
func Paginated(c *gin.Context, data interface{}, meta PageMeta) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    PaginatedResponse{Data: data, Metadata: meta},
	})
}

// Fail translates err through the error taxonomy and sends the error
// envelope. Internal errors are logged with request context; the client
// sees the generic message only.
func Fail(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
	}
	c.JSON(appErr.Status, Response{
		Success: false,
		Error:   &Error{Code: appErr.Status, Message: appErr.Message},
	})
}
