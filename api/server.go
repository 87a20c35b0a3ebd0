// Package api exposes the live track set of the association core to
// downstream consumers over HTTP.  The surface is read only; nothing in
// this package mutates tracker state.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/objectanalytics/go-tracker/tracker"
)

// SetRouter builds the gin engine serving the read-only track endpoints
func SetRouter(reg *tracker.Registry) *gin.Engine {
	r := gin.Default()

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/tracks", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, reg.Snapshots())
	})

	apiRoutes.GET("/tracks/count", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"count": reg.Len()})
	})

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	return r
}
