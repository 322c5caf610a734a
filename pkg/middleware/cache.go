package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheControl sets appropriate cache headers based on the request path.
func CacheControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// No cache for API endpoints by default
		if strings.HasPrefix(path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}

		c.Next()
	}
}
