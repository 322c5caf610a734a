package lesson

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches lesson endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	lessons := router.Group("/lessons", authRequired)

	lessons.GET("", handler.List)
	lessons.POST("", handler.Create)
	lessons.GET("/:lessonId", handler.GetByID)
	lessons.PUT("/:lessonId", handler.Update)
	lessons.DELETE("/:lessonId", handler.Delete)
}
