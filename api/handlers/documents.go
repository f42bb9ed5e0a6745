package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/render"
	"github.com/meghashyamc/folio/services/library"
	"github.com/meghashyamc/folio/services/tags"
	"github.com/meghashyamc/folio/validation"
)

const defaultResultsPerPage = 20

type ListDocumentsRequest struct {
	pageRequest
}

type ListDocumentsResponse struct {
	Documents   []content.Document `json:"documents"`
	PageDetails Pagination         `json:"page_details"`
}

type GetDocumentRequest struct {
	Slug    string `uri:"slug" form:"-" json:"slug" validate:"required,valid_slug"`
	Related int    `form:"related" json:"related" validate:"min=0,max=20"`
}

type GetDocumentResponse struct {
	Document content.Document   `json:"document"`
	HTML     string             `json:"html"`
	Headings []render.Heading   `json:"headings"`
	Related  []content.Document `json:"related"`
}

type RelatedDocumentsRequest struct {
	Slug  string `uri:"slug" form:"-" json:"slug" validate:"required,valid_slug"`
	Limit int    `form:"limit" json:"limit" validate:"min=0,max=20"`
}

type RelatedDocumentsResponse struct {
	Documents []content.Document `json:"documents"`
}

type FeedResponse struct {
	Documents []content.Document `json:"documents"`
}

type BatchDocumentsRequest struct {
	Slugs string `form:"slugs" json:"slugs" validate:"required,valid_slugs"`
}

type BatchDocumentsResponse struct {
	Documents []content.Document `json:"documents"`
}

func SetupDocuments(router gin.IRouter, logger logger.Logger, lib *library.Library, renderer *render.Renderer, validator *validation.Validator) {
	router.GET("/:collection/documents", handleListDocuments(lib, logger, validator))
	router.GET("/:collection/documents/:slug", handleGetDocument(lib, renderer, logger, validator))
	router.GET("/:collection/documents/:slug/related", handleRelatedDocuments(lib, logger, validator))
	router.GET("/:collection/batch", handleBatchDocuments(lib, logger, validator))
	router.GET("/:collection/feed", handleFeed(lib, logger))
}

func handleListDocuments(lib *library.Library, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		request := ListDocumentsRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from list request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate list request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		documents, info, err := collection.ListWithInfo(c.Request.Context())
		if err != nil {
			writeError(c, logger, err, "could not list documents")
			return
		}
		etag := fmt.Sprintf(`"%x"`, info.Fingerprint)
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.AbortWithStatus(http.StatusNotModified)
			return
		}

		limit, offset := request.limitAndOffset()
		writeResponse(c, ListDocumentsResponse{
			Documents:   paginate(documents, limit, offset),
			PageDetails: calculatePagination(len(documents), limit, offset),
		}, http.StatusOK, nil)
	}
}

func handleGetDocument(lib *library.Library, renderer *render.Renderer, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		request := GetDocumentRequest{}
		if err := bindURIAndQuery(c, &request); err != nil {
			logger.Warn("could not extract expected params from document request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}
		if _, present := c.GetQuery("related"); !present {
			request.Related = tags.DefaultRelatedLimit
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate document request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		doc, err := collection.GetBySlug(c.Request.Context(), request.Slug)
		if err != nil {
			writeError(c, logger, err, "could not get document")
			return
		}

		page, err := renderer.Render(doc.RawBody)
		if err != nil {
			writeError(c, logger, err, "could not render document")
			return
		}

		related, err := collection.Related(c.Request.Context(), doc, request.Related)
		if err != nil {
			writeError(c, logger, err, "could not find related documents")
			return
		}

		writeResponse(c, GetDocumentResponse{
			Document: doc,
			HTML:     page.HTML,
			Headings: page.Headings,
			Related:  related,
		}, http.StatusOK, nil)
	}
}

func handleRelatedDocuments(lib *library.Library, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		request := RelatedDocumentsRequest{}
		if err := bindURIAndQuery(c, &request); err != nil {
			logger.Warn("could not extract expected params from related request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}
		if _, present := c.GetQuery("limit"); !present {
			request.Limit = tags.DefaultRelatedLimit
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate related request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		documents, err := collection.RelatedBySlug(c.Request.Context(), request.Slug, request.Limit)
		if err != nil {
			writeError(c, logger, err, "could not find related documents")
			return
		}

		writeResponse(c, RelatedDocumentsResponse{Documents: documents}, http.StatusOK, nil)
	}
}

func handleBatchDocuments(lib *library.Library, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		request := BatchDocumentsRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from batch request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate batch request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		slugs := strings.Split(request.Slugs, ",")
		for i := range slugs {
			slugs[i] = strings.TrimSpace(slugs[i])
		}

		documents, err := collection.GetBySlugs(c.Request.Context(), slugs)
		if err != nil {
			writeError(c, logger, err, "could not get documents")
			return
		}

		writeResponse(c, BatchDocumentsResponse{Documents: documents}, http.StatusOK, nil)
	}
}

// handleFeed returns the newest documents, the window a syndication feed shows.
func handleFeed(lib *library.Library, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		documents, err := collection.Recent(c.Request.Context(), library.DefaultFeedLimit)
		if err != nil {
			writeError(c, logger, err, "could not list recent documents")
			return
		}

		writeResponse(c, FeedResponse{Documents: documents}, http.StatusOK, nil)
	}
}

func bindURIAndQuery(c *gin.Context, request any) error {
	if err := c.ShouldBindUri(request); err != nil {
		return err
	}
	return c.ShouldBindQuery(request)
}
