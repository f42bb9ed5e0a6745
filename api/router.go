package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/api/handlers"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/render"
	"github.com/meghashyamc/folio/services/library"
	"github.com/meghashyamc/folio/validation"
)

type routeDependencies struct {
	logger          logger.Logger
	library         *library.Library
	renderer        *render.Renderer
	validator       *validation.Validator
	searchRateLimit float64
	searchRateBurst int
}

func setupRoutes(router *gin.Engine, deps routeDependencies) {
	router.GET("/health", health(deps.library))

	api := router.Group("/api")
	handlers.SetupDocuments(api, deps.logger, deps.library, deps.renderer, deps.validator)
	handlers.SetupTags(api, deps.logger, deps.library, deps.validator)
	handlers.SetupSearch(api, deps.logger, deps.library, deps.validator, rateLimitMiddleware(deps.logger, deps.searchRateLimit, deps.searchRateBurst))
	handlers.SetupRefresh(api, deps.logger, deps.library)
}

func health(lib *library.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "OK",
			"collections": lib.Names(),
		})
	}
}

func newRouter(logger logger.Logger) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(_CORSMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))

	return router
}
