package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// AllowAll sets permissive CORS headers on every response, including errors and
// requests without an Origin header, and answers preflight requests.
func AllowAll() []gin.HandlerFunc {
	always := func(ctx *gin.Context) {
		ctx.Header("Access-Control-Allow-Origin", "*")
		ctx.Header("Access-Control-Allow-Headers", "*")
		ctx.Next()
	}
	preflight := cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Disposition", "Content-Length", RequestIDHeader},
		MaxAge:          12 * time.Hour,
	})
	return []gin.HandlerFunc{always, preflight}
}
