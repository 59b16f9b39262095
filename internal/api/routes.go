package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册命令面与投递入口路由
func RegisterRoutes(r *gin.Engine, sleep *SleepHandler, ingest *IngestHandler) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/sleep/start", sleep.Start)
		v1.POST("/sleep/stop", sleep.Stop)
		v1.GET("/sleep/events", sleep.Events)

		v1.POST("/provider/deliveries", ingest.Deliver)
	}
}
