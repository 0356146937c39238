package routes

import (
	"net/http"

	"obstarget/internal/service/target"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, targetService *target.TargetService, config map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "obstarget",
			"port":      config["port"],
			"mqttTopic": config["mqttTopic"],
			"targets":   targetService.Count(),
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
