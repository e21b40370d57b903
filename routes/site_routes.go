package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ecotrail/api-go/controllers"
)

func SetupSiteRoutes(public *gin.RouterGroup, siteController *controllers.SiteController) {
	sites := public.Group("/sites")
	{
		sites.GET("/", siteController.ListSites)
		sites.GET("/nearby/", siteController.NearbySites)
		sites.GET("/eco_friendly/", siteController.EcoFriendlySites)
		sites.GET("/:id/", siteController.GetSite)
		sites.GET("/:id/nearby_services/", siteController.NearbyServices)
	}
}

func SetupServiceRoutes(public *gin.RouterGroup, serviceController *controllers.ServiceController) {
	services := public.Group("/services")
	{
		services.GET("/", serviceController.ListServices)
		services.GET("/nearby/", serviceController.NearbyServices)
		services.GET("/by_type/", serviceController.ServicesByType)
	}
}

func SetupEcoActionRoutes(public *gin.RouterGroup, ecoActionController *controllers.EcoActionController) {
	actions := public.Group("/eco-actions")
	{
		actions.GET("/", ecoActionController.ListEcoActions)
		actions.GET("/popular_actions/", ecoActionController.PopularActions)
	}
}
