package routes

import (
	"github.com/gofiber/fiber/v2"

	"milkrun-backend/controllers"
	"milkrun-backend/middlewares"
	"milkrun-backend/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/auth/otp/request", controllers.RequestOTP)
	api.Post("/auth/otp/verify", controllers.VerifyOTP)
	api.Post("/auth/google", controllers.GoogleLogin)
	api.Post("/auth/admin/login", controllers.AdminLogin)
	api.Post("/auth/logout", controllers.Logout)

	// Public catalog
	api.Get("/products", controllers.GetProducts)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticated())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request transaction for mutating verbs
	protected.Use(middlewares.RequestTx())

	// Addresses
	protected.Post("/addresses", controllers.CreateAddress)
	protected.Get("/addresses", controllers.GetAddresses)
	protected.Put("/addresses/:id", controllers.UpdateAddress)

	// One-off orders
	protected.Post("/orders", controllers.CreateOrder)
	protected.Get("/orders", controllers.GetOrders)
	protected.Get("/orders/:id", controllers.GetOrder)

	// Subscriptions
	protected.Post("/subscriptions", controllers.CreateSubscription)
	protected.Get("/subscriptions", controllers.GetSubscriptions)
	protected.Patch("/subscriptions/:id", controllers.UpdateSubscription)
	protected.Post("/subscriptions/:id/pause", controllers.PauseSubscription)
	protected.Post("/subscriptions/:id/resume", controllers.ResumeSubscription)
	protected.Post("/subscriptions/:id/cancel", controllers.CancelSubscription)

	// Billing
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoices/:id", controllers.GetInvoice)
	protected.Get("/ledger", controllers.GetLedger)
	protected.Post("/balance/topup", controllers.TopUpBalance)

	// Delivery-agent surface
	agent := protected.Group("/agent", middlewares.RequireRole(models.RoleDeliveryAgent))
	agent.Get("/route", controllers.GetAgentRoute)
	agent.Patch("/stops/:id/status", controllers.UpdateStopStatus)

	// Admin surface
	admin := protected.Group("/admin", middlewares.RequireRole(models.RoleAdmin))
	admin.Post("/products", controllers.CreateProduct)
	admin.Put("/products/:id", controllers.UpdateProduct)
	admin.Delete("/products/:id", controllers.DeleteProduct)
	admin.Post("/agents", controllers.CreateAgent)

	admin.Post("/routes/generate", controllers.GenerateRoutes)
	admin.Get("/routes", controllers.GetRoutes)
	admin.Delete("/routes", controllers.DeleteRoutes)

	admin.Post("/invoices/:id/payments", controllers.RecordInvoicePayment)

	// Manual equivalents of every scheduled job
	admin.Post("/jobs/expand-deliveries", controllers.TriggerExpandDeliveries)
	admin.Post("/jobs/weekly-invoices", controllers.TriggerWeeklyInvoices)
	admin.Post("/jobs/monthly-invoices", controllers.TriggerMonthlyInvoices)
	admin.Post("/jobs/mark-overdue", controllers.TriggerMarkOverdue)
	admin.Post("/jobs/cleanup", controllers.TriggerCleanup)
}
