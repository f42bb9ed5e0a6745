package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/services/library"
)

type response struct {
	Data   any      `json:"data"`
	Errors []string `json:"errors"`
}

func writeResponse(c *gin.Context, data interface{}, statusCode int, errors []string) {

	if statusCode == http.StatusNoContent {
		c.JSON(statusCode, nil)
		return

	}

	response := response{
		Data:   data,
		Errors: errors,
	}

	c.JSON(statusCode, response)
}

// writeError maps a library error to a status code and writes it.
func writeError(c *gin.Context, logger logger.Logger, err error, msg string) {
	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, library.ErrNotFound), errors.Is(err, library.ErrUnknownCollection):
		statusCode = http.StatusNotFound
		logger.Info(msg, "path", c.Request.URL.Path, "err", err.Error())
	case errors.Is(err, library.ErrFullTextDisabled):
		statusCode = http.StatusNotImplemented
		logger.Warn(msg, "err", err.Error())
	default:
		logger.Error(msg, "path", c.Request.URL.Path, "err", err.Error())
	}
	c.Abort()
	writeResponse(c, nil, statusCode, []string{err.Error()})
}

type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalPages   int  `json:"total_pages"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
	TotalResults int  `json:"total_results"`
}

func calculatePagination(total, limit, offset int) Pagination {
	pageSize := limit
	currentPage := (offset / limit) + 1
	totalPages := (total + pageSize - 1) / pageSize

	if totalPages == 0 {
		totalPages = 1
	}

	return Pagination{
		CurrentPage:  currentPage,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		HasNextPage:  currentPage < totalPages,
		HasPrevPage:  currentPage > 1,
		TotalResults: total,
	}
}

// paginate returns the items of one page, or an empty slice past the end.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

type pageRequest struct {
	PerPage int `form:"per_page" json:"per_page" validate:"min=0,max=100"`
	Page    int `form:"page" json:"page" validate:"min=0"`
}

func (r *pageRequest) setDefaults() {
	if r.PerPage == 0 {
		r.PerPage = defaultResultsPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

func (r pageRequest) limitAndOffset() (int, int) {
	return r.PerPage, (r.Page - 1) * r.PerPage
}

func collectionFromRequest(c *gin.Context, lib *library.Library, logger logger.Logger) (*library.Collection, bool) {
	collection, err := lib.Collection(c.Param("collection"))
	if err != nil {
		writeError(c, logger, err, "request for unknown collection")
		return nil, false
	}
	return collection, true
}
