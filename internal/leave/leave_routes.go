package leave

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	leaves := r.Group("/leaves")
	{
		leaves.GET("", handler.GetAll)
		leaves.GET("/pending", handler.GetPending)
		leaves.GET("/overlap", handler.Overlap)
		leaves.GET("/employee/:id", handler.GetForEmployee)
		leaves.POST("", handler.Create)
		leaves.POST("/submit", handler.Submit)
		leaves.POST("/:id/approve", handler.Approve)
		leaves.POST("/:id/reject", handler.Reject)
		leaves.PUT("/:id", handler.Update)
		leaves.DELETE("/:id", handler.Delete)
		leaves.POST("/bulk-delete", handler.BulkDelete)
	}
}
