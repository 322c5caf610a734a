package user

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches profile endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	users := router.Group("/users", authRequired)
	{
		users.GET("/profile", handler.Profile)
		users.PUT("/profile", handler.UpdateProfile)
	}
}
