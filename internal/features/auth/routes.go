package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches authentication endpoints under /users.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	users := router.Group("/users")
	{
		users.POST("/register", handler.Register)
		users.POST("/login", handler.Login)
		users.POST("/refresh", handler.Refresh)
	}
}
