package coursesub

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches subscription endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	router.POST("/subscriptions", authRequired, handler.Toggle)
}
