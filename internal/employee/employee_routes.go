package employee

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	employees := r.Group("/employees")
	{
		employees.GET("", handler.GetAll)
		employees.GET("/pending", handler.GetPending)
		employees.POST("", handler.Create)
		employees.PUT("/:id", handler.Update)
		employees.POST("/:id/approve", handler.Approve)
		employees.POST("/:id/grant-quota", handler.GrantQuota)
		employees.DELETE("/:id", handler.Delete)
	}
}
