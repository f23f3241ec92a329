package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"uhcare-backend/database"
	"uhcare-backend/ledger"
	"uhcare-backend/middlewares"
	"uhcare-backend/models"
	"uhcare-backend/utils"
)

type createBookingDTO struct {
	ServiceID       uint            `json:"service_id" validate:"required"`
	AppointmentDate string          `json:"appointment_date" validate:"required"`
	AppointmentTime string          `json:"appointment_time" validate:"required"`
	DurationHours   decimal.Decimal `json:"duration_hours"`
	ServiceAddress  string          `json:"service_address" validate:"required"`
	ServicePrice    decimal.Decimal `json:"service_price" validate:"required"`
	PatientNotes    string          `json:"patient_notes"`
}

// CreateBooking books a marketplace service. The booking and its unpaid
// Payment row are written in the same request transaction; if either fails
// nothing is committed.
func CreateBooking(c *fiber.Ctx) error {
	var data createBookingDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)

	date, err := time.Parse("2006-01-02", data.AppointmentDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid appointment date")
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	var service models.Service
	if err := tx.Where("id = ? AND active = ?", data.ServiceID, true).First(&service).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}

	// Booking price must fall within the service's advertised range.
	if data.ServicePrice.LessThan(service.PriceMin) || data.ServicePrice.GreaterThan(service.PriceMax) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "service price is outside the advertised range")
	}

	duration := data.DurationHours
	if duration.IsZero() {
		duration = decimal.NewFromInt(1)
	}

	booking := models.ServiceBooking{
		PatientID:       currentUser(c),
		ProviderID:      service.ProviderId,
		ServiceID:       service.Id,
		AppointmentDate: date,
		AppointmentTime: data.AppointmentTime,
		DurationHours:   duration,
		ServiceAddress:  data.ServiceAddress,
		ServicePrice:    data.ServicePrice,
		PatientNotes:    data.PatientNotes,
		Status:          models.StatusPending,
	}
	if err := tx.Create(&booking).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create booking")
	}

	payment, err := createPaymentFor(tx, booking.PatientID, models.KindServiceBooking, booking.ID, booking.TotalAmount)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"booking": booking, "payment": payment})
}

func GetBookings(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	q := tx.Preload("Service").Order("appointment_date DESC, appointment_time DESC")
	switch currentRole(c) {
	case models.RoleProvider:
		q = q.Where("provider_id = ?", currentUser(c))
	case models.RoleStaff:
		// staff sees everything
	default:
		q = q.Where("patient_id = ?", currentUser(c))
	}

	var bookings []models.ServiceBooking
	if err := q.Find(&bookings).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

func loadBooking(c *fiber.Ctx, tx *gorm.DB) (*models.ServiceBooking, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid booking id")
	}
	var booking models.ServiceBooking
	q := tx.Where("id = ?", id)
	switch currentRole(c) {
	case models.RoleStaff:
	case models.RoleProvider:
		q = q.Where("provider_id = ?", currentUser(c))
	default:
		q = q.Where("patient_id = ?", currentUser(c))
	}
	if err := q.First(&booking).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// ConfirmBooking moves a pending booking to confirmed (provider or staff).
func ConfirmBooking(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	booking, err := loadBooking(c, tx)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusPending {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "only pending bookings can be confirmed")
	}
	now := time.Now().UTC()
	booking.Status = models.StatusConfirmed
	booking.ConfirmedAt = &now
	return saveAndRespond(c, tx, booking)
}

// CompleteBooking marks a confirmed/in-progress booking completed, which opens
// the cash self-confirmation window on its payment.
func CompleteBooking(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	booking, err := loadBooking(c, tx)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusConfirmed && booking.Status != models.StatusInProgress {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "only confirmed bookings can be completed")
	}
	now := time.Now().UTC()
	booking.Status = models.StatusCompleted
	booking.CompletedAt = &now
	booking.ProviderNotes = c.FormValue("provider_notes", booking.ProviderNotes)
	return saveAndRespond(c, tx, booking)
}

type cancelDTO struct {
	Reason string `json:"reason"`
}

// CancelBooking cancels a pending or confirmed booking and voids its linked
// payment in the same transaction.
func CancelBooking(c *fiber.Ctx) error {
	var data cancelDTO
	_ = c.BodyParser(&data)

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	booking, err := loadBooking(c, tx)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusPending && booking.Status != models.StatusConfirmed {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "this booking can no longer be cancelled")
	}

	booking.Status = models.StatusCancelled
	booking.CancellationReason = data.Reason
	if err := tx.Save(booking).Error; err != nil {
		return err
	}
	if err := refundPaymentsFor(tx, models.KindServiceBooking, booking.ID, currentUser(c)); err != nil {
		return err
	}
	return c.JSON(booking)
}

func saveAndRespond(c *fiber.Ctx, tx *gorm.DB, booking *models.ServiceBooking) error {
	if err := tx.Save(booking).Error; err != nil {
		return err
	}
	return c.JSON(booking)
}
