package api

import (
	routes "obstarget/internal/api/handlers"
	"obstarget/internal/service/target"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, targetService *target.TargetService, config map[string]string) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), targetService, config)

	// Setup target handlers
	routes.SetupTargetHandlers(api, targetService)
}
