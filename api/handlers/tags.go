package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/content"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/services/library"
	"github.com/meghashyamc/folio/services/tags"
	"github.com/meghashyamc/folio/validation"
)

type ListTagsRequest struct {
	Limit int `form:"limit" json:"limit" validate:"min=0,max=100"`
}

type ListTagsResponse struct {
	Tags []tags.Tag `json:"tags"`
}

type TaggedDocumentsRequest struct {
	Tag string `uri:"tag" form:"-" json:"tag" validate:"required,valid_tag"`
}

type TaggedDocumentsResponse struct {
	Tag         string             `json:"tag"`
	DisplayName string             `json:"display_name"`
	Documents   []content.Document `json:"documents"`
}

func SetupTags(router gin.IRouter, logger logger.Logger, lib *library.Library, validator *validation.Validator) {
	router.GET("/:collection/tags", handleListTags(lib, logger, validator))
	router.GET("/:collection/tags/:tag", handleTaggedDocuments(lib, logger, validator))
}

// handleListTags returns every tag, or the most used ones when limit is set.
func handleListTags(lib *library.Library, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		request := ListTagsRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from tags request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate tags request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		var (
			result []tags.Tag
			err    error
		)
		if request.Limit > 0 {
			result, err = collection.PopularTags(c.Request.Context(), request.Limit)
		} else {
			result, err = collection.Tags(c.Request.Context())
		}
		if err != nil {
			writeError(c, logger, err, "could not list tags")
			return
		}

		writeResponse(c, ListTagsResponse{Tags: result}, http.StatusOK, nil)
	}
}

func handleTaggedDocuments(lib *library.Library, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		request := TaggedDocumentsRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract expected params from tag request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate tag request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		documents, err := collection.ByTag(c.Request.Context(), request.Tag)
		if err != nil {
			writeError(c, logger, err, "could not list tagged documents")
			return
		}
		if len(documents) == 0 {
			logger.Info("no documents with tag", "collection", collection.Name(), "tag", request.Tag)
			c.Abort()
			writeResponse(c, nil, http.StatusNotFound, []string{fmt.Sprintf("no documents tagged %q", request.Tag)})
			return
		}

		writeResponse(c, TaggedDocumentsResponse{
			Tag:         request.Tag,
			DisplayName: tags.DisplayName(content.TagSlug(request.Tag)),
			Documents:   documents,
		}, http.StatusOK, nil)
	}
}
