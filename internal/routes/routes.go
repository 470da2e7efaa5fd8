package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/handlers"
	"github.com/example/referdby/internal/middleware"
	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, deps *Dependencies) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	profileHandler := handlers.NewProfileHandler(db, deps.Currency, deps.Balances, cfg.Points.Currency)
	currencyHandler := handlers.NewCurrencyHandler(deps.Currency)
	activityHandler := handlers.NewActivityHandler(deps.Activities, deps.Processor)
	redemptionHandler := handlers.NewRedemptionHandler(db, deps.Eligibility, deps.Currency, cfg.Points.Currency)
	restaurantHandler := handlers.NewRestaurantHandler(db, deps.Schedule)
	adminHandler := handlers.NewAdminHandler(db, deps.Processor)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", middleware.MetricsAuthMiddleware(cfg.MetricsToken), adaptor.HTTPHandler(promhttp.Handler()))

	if local, ok := deps.Blobs.(*services.LocalBlobStore); ok {
		app.Static("/uploads", local.Dir())
	}

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/restaurants/:id", restaurantHandler.GetRestaurant)
	api.Get("/restaurants/:id/redemption-hours", restaurantHandler.RedemptionHours)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg, db))

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/points", profileHandler.ListPointsHistory)

	protected.Get("/currency/convert", currencyHandler.Convert)

	protected.Get("/redemptions/eligibility", redemptionHandler.Eligibility)
	protected.Post("/redemptions/validate", redemptionHandler.Validate)

	protected.Put("/restaurants/:id/schedule",
		middleware.RequireRole(models.Role.CanManageRestaurant), restaurantHandler.UpdateSchedule)

	staff := middleware.RequireRole(models.Role.CanProcessSettlements)
	activities := protected.Group("/activities")
	activities.Get("/", activityHandler.List)
	activities.Post("/referrals", staff, activityHandler.CreateReferralScan)
	activities.Post("/redemptions", staff, activityHandler.CreateRedeemScan)
	activities.Post("/:id/present", staff, activityHandler.Present)
	activities.Post("/:id/process-bill", staff, activityHandler.ProcessBill)
	activities.Post("/:id/process-redemption", staff, activityHandler.ProcessRedemption)
	activities.Post("/:id/reprocess", middleware.RequireRole(models.Role.CanAdjustPoints), activityHandler.Reprocess)

	admin := protected.Group("/admin", middleware.RequireRole(models.Role.CanAdjustPoints))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/profiles", adminHandler.ListProfiles)
	admin.Put("/profiles/:id/role", adminHandler.UpdateProfileRole)
	admin.Get("/activities/recent", adminHandler.RecentActivities)
	admin.Post("/points-deductions", adminHandler.DeductPoints)
}
