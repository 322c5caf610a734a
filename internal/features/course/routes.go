package course

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches course endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	courses := router.Group("/courses", authRequired)

	courses.GET("", handler.List)
	courses.POST("", handler.Create)
	courses.GET("/:courseId", handler.GetByID)
	courses.PUT("/:courseId", handler.Update)
	courses.DELETE("/:courseId", handler.Delete)
}
