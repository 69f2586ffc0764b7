package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/sitwell/internal/config"
	"github.com/example/sitwell/internal/handlers"
	"github.com/example/sitwell/internal/middleware"
	"github.com/example/sitwell/internal/ratelimit"
	"github.com/example/sitwell/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, sender services.Sender, limiter *ratelimit.Limiter) {
	authService := services.NewAuthService(db, sender)
	cartService := services.NewCartService(db)
	catalogService := services.NewCatalogService(db)
	orderService := services.NewOrderService(db, sender)

	authHandler := handlers.NewAuthHandler(authService, cfg, limiter)
	resetHandler := handlers.NewPasswordResetHandler(authService, limiter)
	profileHandler := handlers.NewProfileHandler(db, authService, limiter)
	catalogHandler := handlers.NewCatalogHandler(db)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(db, orderService)
	adminHandler := handlers.NewAdminHandler(db, authService, catalogService, orderService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/verify-otp", authHandler.VerifySignup)
	auth.Post("/resend-otp", authHandler.ResendOTP)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", resetHandler.Forgot)
	auth.Post("/forgot-password/verify", resetHandler.VerifyOTP)
	auth.Post("/forgot-password/reset", resetHandler.Reset)

	// Public catalog
	products := api.Group("/products")
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/:id", catalogHandler.GetProduct)
	api.Get("/categories", catalogHandler.ListCategories)

	// Authenticated customer routes
	protected := api.Group("", middleware.AuthMiddleware(cfg, db))

	profile := protected.Group("/profile")
	profile.Get("/", profileHandler.Me)
	profile.Put("/", profileHandler.UpdateMe)
	profile.Post("/email-change", profileHandler.RequestEmailChange)
	profile.Post("/email-change/verify", profileHandler.VerifyEmailChange)

	addresses := protected.Group("/addresses")
	addresses.Get("/", profileHandler.ListAddresses)
	addresses.Post("/", profileHandler.CreateAddress)
	addresses.Put("/:id", profileHandler.UpdateAddress)
	addresses.Delete("/:id", profileHandler.DeleteAddress)

	wishlist := protected.Group("/wishlist")
	wishlist.Get("/", profileHandler.ListWishlist)
	wishlist.Post("/", profileHandler.AddToWishlist)
	wishlist.Delete("/:productId", profileHandler.RemoveFromWishlist)

	cart := protected.Group("/cart")
	cart.Get("/", cartHandler.Get)
	cart.Post("/items", cartHandler.Add)
	cart.Patch("/items/:itemId", cartHandler.UpdateQuantity)
	cart.Delete("/items/:itemId", cartHandler.Remove)
	cart.Delete("/", cartHandler.Clear)

	orders := protected.Group("/orders")
	orders.Post("/", orderHandler.Place)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.Get)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Post("/:id/items/:itemId/cancel", orderHandler.CancelItem)
	orders.Post("/:id/return", orderHandler.Return)

	// Admin routes
	admin := protected.Group("/admin", middleware.AdminRequired())

	admin.Get("/customers", adminHandler.ListCustomers)
	admin.Post("/customers/:id/block", adminHandler.BlockCustomer)
	admin.Post("/customers/:id/unblock", adminHandler.UnblockCustomer)

	adminProducts := admin.Group("/products")
	adminProducts.Get("/", adminHandler.ListProducts)
	adminProducts.Post("/", adminHandler.CreateProduct)
	adminProducts.Put("/:id", adminHandler.UpdateProduct)
	adminProducts.Patch("/:id/stock", adminHandler.UpdateStock)
	adminProducts.Post("/:id/publish", adminHandler.PublishProduct)
	adminProducts.Post("/:id/block", adminHandler.BlockProduct)
	adminProducts.Post("/:id/unblock", adminHandler.UnblockProduct)
	adminProducts.Delete("/:id", adminHandler.DeleteProduct)
	adminProducts.Post("/:id/restore", adminHandler.RestoreProduct)

	adminCategories := admin.Group("/categories")
	adminCategories.Get("/", adminHandler.ListCategoriesAdmin)
	adminCategories.Post("/", adminHandler.CreateCategory)
	adminCategories.Put("/:id", adminHandler.UpdateCategory)
	adminCategories.Post("/:id/block", adminHandler.BlockCategory)
	adminCategories.Post("/:id/unblock", adminHandler.UnblockCategory)
	adminCategories.Delete("/:id", adminHandler.DeleteCategory)
	adminCategories.Post("/:id/restore", adminHandler.RestoreCategory)

	adminOrders := admin.Group("/orders")
	adminOrders.Get("/", adminHandler.ListOrders)
	adminOrders.Patch("/:id/status", adminHandler.AdvanceOrderStatus)
}
