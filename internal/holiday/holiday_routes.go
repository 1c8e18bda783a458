package holiday

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	holidays := r.Group("/holidays")
	{
		holidays.GET("", handler.GetAll)
		holidays.POST("", handler.Create)
		holidays.DELETE("/:id", handler.Delete)
	}
}
