package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/services/library"
	"github.com/meghashyamc/folio/services/search"
	"github.com/meghashyamc/folio/validation"
)

const (
	searchModeLexical  = "lexical"
	searchModeFullText = "fulltext"
)

type SearchRequest struct {
	Query string `form:"query" json:"query" validate:"required,valid_query,min=1,max=1000"`
	Mode  string `form:"mode" json:"mode" validate:"omitempty,oneof=lexical fulltext"`
	pageRequest
}

func (r *SearchRequest) setDefaults() {
	r.pageRequest.setDefaults()
	if r.Mode == "" {
		r.Mode = searchModeLexical
	}
}

type SearchResponse struct {
	Mode        string          `json:"mode"`
	Results     []search.Result `json:"results"`
	PageDetails Pagination      `json:"page_details"`
}

type FullTextSearchResponse struct {
	Mode        string                `json:"mode"`
	Results     []library.FullTextHit `json:"results"`
	SearchTime  string                `json:"search_time"`
	PageDetails Pagination            `json:"page_details"`
}

// SetupSearch registers the search route. middleware runs before the handler,
// which lets the server rate limit searches without limiting other routes.
func SetupSearch(router gin.IRouter, logger logger.Logger, lib *library.Library, validator *validation.Validator, middleware ...gin.HandlerFunc) {
	chain := append(middleware, handleSearch(lib, logger, validator))
	router.GET("/:collection/search", chain...)
}

func handleSearch(lib *library.Library, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		limit, offset := request.limitAndOffset()

		if request.Mode == searchModeFullText {
			results, err := collection.FullTextSearch(c.Request.Context(), request.Query, limit, offset)
			if err != nil {
				writeError(c, logger, err, "full-text search failed")
				return
			}
			writeResponse(c, FullTextSearchResponse{
				Mode:        request.Mode,
				Results:     results.Hits,
				SearchTime:  results.SearchTime,
				PageDetails: calculatePagination(int(results.Total), limit, offset),
			}, http.StatusOK, nil)
			return
		}

		results, err := collection.Search(c.Request.Context(), request.Query)
		if err != nil {
			writeError(c, logger, err, "search failed")
			return
		}

		writeResponse(c, SearchResponse{
			Mode:        request.Mode,
			Results:     paginate(results, limit, offset),
			PageDetails: calculatePagination(len(results), limit, offset),
		}, http.StatusOK, nil)
	}
}
