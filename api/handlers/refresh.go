package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/services/library"
)

type RefreshResponse struct {
	Info library.Info `json:"info"`
}

func SetupRefresh(router gin.IRouter, logger logger.Logger, lib *library.Library) {
	router.POST("/:collection/refresh", handleRefresh(lib, logger))
}

// handleRefresh reloads a collection without waiting for its cache to expire.
func handleRefresh(lib *library.Library, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		collection, ok := collectionFromRequest(c, lib, logger)
		if !ok {
			return
		}

		info, err := collection.Refresh(c.Request.Context())
		if err != nil {
			writeError(c, logger, err, "could not refresh collection")
			return
		}

		writeResponse(c, RefreshResponse{Info: info}, http.StatusOK, nil)
	}
}
