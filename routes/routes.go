package routes

import (
	"github.com/gofiber/fiber/v2"

	"uhcare-backend/controllers"
	"uhcare-backend/middlewares"
	"uhcare-backend/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then the per-request transaction (commits on success, rolls back on error)
	protected.Use(middlewares.RequestTx())

	// Services
	protected.Post("/service", middlewares.RequireRole(models.RoleProvider), controllers.CreateService)
	protected.Get("/services", controllers.GetServices)
	protected.Patch("/service/:id", middlewares.RequireRole(models.RoleProvider), controllers.UpdateService)

	// Service bookings
	protected.Post("/booking", middlewares.RequireRole(models.RolePatient), controllers.CreateBooking)
	protected.Get("/bookings", controllers.GetBookings)
	protected.Put("/booking/:id/confirm", middlewares.RequireRole(models.RoleProvider), controllers.ConfirmBooking)
	protected.Put("/booking/:id/complete", middlewares.RequireRole(models.RoleProvider), controllers.CompleteBooking)
	protected.Put("/booking/:id/cancel", controllers.CancelBooking)

	// Personal appointments
	protected.Post("/appointment", middlewares.RequireRole(models.RolePatient), controllers.CreateAppointment)
	protected.Get("/appointments", controllers.GetAppointments)
	protected.Put("/appointment/:id/confirm", middlewares.RequireRole(models.RoleProvider), controllers.ConfirmAppointment)
	protected.Put("/appointment/:id/complete", middlewares.RequireRole(models.RoleProvider), controllers.CompleteAppointment)
	protected.Put("/appointment/:id/cancel", controllers.CancelAppointment)

	// Pharmacy
	protected.Get("/medicines", controllers.GetMedicines)
	protected.Post("/pharmacy/checkout", middlewares.RequireRole(models.RolePatient), controllers.PharmacyCheckout)
	protected.Get("/pharmacy/orders", controllers.GetPharmacyOrders)
	protected.Put("/pharmacy/orders/:number/cancel", controllers.CancelPharmacyOrder)
	protected.Put("/pharmacy/orders/:number/status", middlewares.RequireStaff(), controllers.UpdatePharmacyOrderStatus)

	// Equipment rentals and purchases
	protected.Get("/equipment", controllers.GetEquipment)
	protected.Post("/equipment/:id/rent", middlewares.RequireRole(models.RolePatient), controllers.RentEquipment)
	protected.Post("/equipment/:id/purchase", middlewares.RequireRole(models.RolePatient), controllers.PurchaseEquipment)
	protected.Put("/equipment/rentals/:number/cancel", controllers.CancelRental)
	protected.Put("/equipment/rentals/:number/return", controllers.ReturnRental)
	protected.Put("/equipment/rentals/:number/status", middlewares.RequireStaff(), controllers.UpdateRentalStatus)
	protected.Put("/equipment/purchases/:number/cancel", controllers.CancelPurchase)
	protected.Put("/equipment/purchases/:number/status", middlewares.RequireStaff(), controllers.UpdatePurchaseStatus)

	// Payments
	protected.Get("/payments", controllers.GetPayments)
	protected.Get("/payments/cash-commitments", controllers.GetCashCommitments)
	protected.Get("/payments/classified", controllers.ClassifyPayments)
	protected.Get("/payments/:id", controllers.GetPayment)
	protected.Put("/payments/:id/method", controllers.SetPaymentMethod)
	protected.Put("/payments/:id/proof", controllers.SubmitProof)
	protected.Put("/payments/:id/confirm", controllers.ConfirmCashPayment)
	protected.Put("/payments/:id/verify", middlewares.RequireStaff(), controllers.VerifyPayment)

	// Stored payment method preferences
	protected.Post("/payment-methods", controllers.CreateUserPaymentMethod)
	protected.Get("/payment-methods", controllers.GetUserPaymentMethods)

	// Balance and dashboard (both served by the same composer)
	protected.Get("/balance", controllers.GetBalance)
	protected.Get("/dashboard", controllers.GetDashboard)
}
