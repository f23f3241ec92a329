package controllers

import (
	"github.com/gofiber/fiber/v2"

	"uhcare-backend/database"
	"uhcare-backend/ledger"
	"uhcare-backend/models"
)

// GetBalance returns the detailed balance view. Both this endpoint and the
// dashboard route through ledger.Service.GetBalance so the two surfaces can
// never disagree on the figures.
func GetBalance(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	svc := ledger.NewService(ledger.NewGormSource(tx))
	balance, err := svc.GetBalance(c.Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(balance)
}

// GetDashboard returns the patient overview: activity counts plus the same
// balance figures the balance page shows.
func GetDashboard(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	userID := currentUser(c)

	svc := ledger.NewService(ledger.NewGormSource(tx))
	balance, err := svc.GetBalance(c.Context(), userID)
	if err != nil {
		return err
	}

	var (
		totalBookings     int64
		completedBookings int64
		pendingBookings   int64
		cancelledBookings int64
		personalCount     int64
		pharmacyCount     int64
		purchaseCount     int64
		rentalCount       int64
	)
	tx.Model(&models.ServiceBooking{}).Where("patient_id = ?", userID).Count(&totalBookings)
	tx.Model(&models.ServiceBooking{}).Where("patient_id = ? AND status = ?", userID, models.StatusCompleted).Count(&completedBookings)
	tx.Model(&models.ServiceBooking{}).Where("patient_id = ? AND status = ?", userID, models.StatusPending).Count(&pendingBookings)
	tx.Model(&models.ServiceBooking{}).Where("patient_id = ? AND status = ?", userID, models.StatusCancelled).Count(&cancelledBookings)
	tx.Model(&models.PersonalAppointment{}).Where("patient_id = ?", userID).Count(&personalCount)
	tx.Model(&models.PharmacyOrder{}).Where("customer_id = ?", userID).Count(&pharmacyCount)
	tx.Model(&models.EquipmentPurchase{}).Where("customer_id = ?", userID).Count(&purchaseCount)
	tx.Model(&models.EquipmentRental{}).Where("customer_id = ?", userID).Count(&rentalCount)

	var recentPayments []models.Payment
	tx.Where("patient_id = ?", userID).Order("created_at DESC").Limit(5).Find(&recentPayments)

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"total_bookings":        totalBookings,
			"completed_bookings":    completedBookings,
			"pending_bookings":      pendingBookings,
			"cancelled_bookings":    cancelledBookings,
			"personal_appointments": personalCount,
			"pharmacy_orders":       pharmacyCount,
			"equipment_purchases":   purchaseCount,
			"equipment_rentals":     rentalCount,
		},
		"balance":         balance,
		"recent_payments": recentPayments,
	})
}
