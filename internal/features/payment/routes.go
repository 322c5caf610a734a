package payment

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches payment endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	payments := router.Group("/payments", authRequired)

	payments.GET("", handler.List)
	payments.POST("/checkout", handler.Checkout)
}
