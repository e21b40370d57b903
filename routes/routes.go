package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecotrail/api-go/config"
	"github.com/ecotrail/api-go/controllers"
	"github.com/ecotrail/api-go/middleware"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/store"
	"github.com/ecotrail/api-go/websocket"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config     *config.Config
	Store      store.Store
	Catalog    *services.Catalog
	Ledger     *services.Ledger
	Dispatcher *services.Dispatcher
	WebSocket  *websocket.Handler
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	r.Use(gin.Recovery(), middleware.RequestLogger(), cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	// Initialize controllers
	authController := controllers.NewAuthController(deps.Store, deps.Ledger, cfg.JWTSecret, cfg.JWTTTL)
	siteController := controllers.NewSiteController(deps.Catalog, deps.Dispatcher, cfg.DefaultSearchRadiusKm)
	serviceController := controllers.NewServiceController(deps.Catalog, deps.Dispatcher)
	ecoActionController := controllers.NewEcoActionController(deps.Catalog)
	profileController := controllers.NewProfileController(deps.Ledger, deps.Dispatcher)
	leaderboardController := controllers.NewLeaderboardController(deps.Ledger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/tourism/", middleware.OptionalAuth(cfg.JWTSecret), deps.WebSocket.Serve)

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", authController.Register)
		public.POST("/login", authController.Login)

		SetupSiteRoutes(public, siteController)
		SetupServiceRoutes(public, serviceController)
		SetupEcoActionRoutes(public, ecoActionController)
		public.GET("/leaderboard/", leaderboardController.GetLeaderboard)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/profile", authController.GetProfile)

		SetupProfileRoutes(protected, profileController)
	}
}
