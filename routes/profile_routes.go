package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/controllers"
)

func SetupProfileRoutes(protected *gin.RouterGroup, profileController *controllers.ProfileController) {
	profiles := protected.Group("/profiles")
	{
		profiles.POST("/:id/complete_action/", profileController.CompleteAction)
		profiles.GET("/:id/action_history/", profileController.ActionHistory)
		profiles.GET("/:id/statistics/", profileController.Statistics)
	}
}
