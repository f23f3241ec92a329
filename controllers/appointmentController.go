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

type createAppointmentDTO struct {
	ProviderID      string          `json:"provider_id" validate:"required"`
	AppointmentType string          `json:"appointment_type" validate:"required,oneof=consultation follow_up emergency screening counseling"`
	AppointmentDate string          `json:"appointment_date" validate:"required"`
	AppointmentTime string          `json:"appointment_time" validate:"required"`
	DurationMinutes int             `json:"duration_minutes"`
	LocationType    string          `json:"location_type" validate:"omitempty,oneof=video phone"`
	Reason          string          `json:"reason" validate:"required"`
	Symptoms        string          `json:"symptoms"`
	PatientPhone    string          `json:"patient_phone"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

// CreateAppointment books a direct patient-provider consultation together with
// its unpaid Payment row, in one transaction.
func CreateAppointment(c *fiber.Ctx) error {
	var data createAppointmentDTO
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

	var provider models.User
	if err := tx.Where("id = ? AND role = ?", data.ProviderID, models.RoleProvider).First(&provider).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "provider not found")
		}
		return err
	}

	fee := data.ConsultationFee
	if fee.IsZero() {
		fee = decimal.NewFromInt(500) // standard consultation fee
	}
	duration := data.DurationMinutes
	if duration == 0 {
		duration = 30
	}
	location := data.LocationType
	if location == "" {
		location = models.LocationVideo
	}

	appt := models.PersonalAppointment{
		PatientID:       currentUser(c),
		ProviderID:      provider.Id,
		AppointmentType: data.AppointmentType,
		AppointmentDate: date,
		AppointmentTime: data.AppointmentTime,
		DurationMinutes: duration,
		LocationType:    location,
		Reason:          data.Reason,
		Symptoms:        data.Symptoms,
		PatientPhone:    data.PatientPhone,
		ConsultationFee: fee,
		Status:          models.StatusPending,
	}
	if err := tx.Create(&appt).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create appointment")
	}

	payment, err := createPaymentFor(tx, appt.PatientID, models.KindPersonalAppointment, appt.ID, appt.TotalFee)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"appointment": appt, "payment": payment})
}

func GetAppointments(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	q := tx.Order("appointment_date DESC, appointment_time DESC")
	switch currentRole(c) {
	case models.RoleProvider:
		q = q.Where("provider_id = ?", currentUser(c))
	case models.RoleStaff:
	default:
		q = q.Where("patient_id = ?", currentUser(c))
	}

	var appts []models.PersonalAppointment
	if err := q.Find(&appts).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"appointments": appts})
}

func loadAppointment(c *fiber.Ctx, tx *gorm.DB) (*models.PersonalAppointment, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid appointment id")
	}
	var appt models.PersonalAppointment
	q := tx.Where("id = ?", id)
	switch currentRole(c) {
	case models.RoleStaff:
	case models.RoleProvider:
		q = q.Where("provider_id = ?", currentUser(c))
	default:
		q = q.Where("patient_id = ?", currentUser(c))
	}
	if err := q.First(&appt).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func ConfirmAppointment(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	appt, err := loadAppointment(c, tx)
	if err != nil {
		return err
	}
	if appt.Status != models.StatusPending {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "only pending appointments can be confirmed")
	}
	now := time.Now().UTC()
	appt.Status = models.StatusConfirmed
	appt.ConfirmedAt = &now
	if err := tx.Save(appt).Error; err != nil {
		return err
	}
	return c.JSON(appt)
}

func CompleteAppointment(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	appt, err := loadAppointment(c, tx)
	if err != nil {
		return err
	}
	if appt.Status != models.StatusConfirmed && appt.Status != models.StatusInProgress {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "only confirmed appointments can be completed")
	}
	now := time.Now().UTC()
	appt.Status = models.StatusCompleted
	appt.CompletedAt = &now
	if err := tx.Save(appt).Error; err != nil {
		return err
	}
	return c.JSON(appt)
}

// CancelAppointment cancels a pending or confirmed appointment. The terminal
// status records which side cancelled; the linked payment is voided in the
// same transaction.
func CancelAppointment(c *fiber.Ctx) error {
	var data cancelDTO
	_ = c.BodyParser(&data)

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	appt, err := loadAppointment(c, tx)
	if err != nil {
		return err
	}
	if appt.Status != models.StatusPending && appt.Status != models.StatusConfirmed {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "this appointment can no longer be cancelled")
	}

	now := time.Now().UTC()
	if currentRole(c) == models.RolePatient {
		appt.Status = models.StatusCancelledByPatient
	} else {
		appt.Status = models.StatusCancelledByProvider
	}
	appt.CancellationReason = data.Reason
	appt.CancelledAt = &now
	if err := tx.Save(appt).Error; err != nil {
		return err
	}
	if err := refundPaymentsFor(tx, models.KindPersonalAppointment, appt.ID, currentUser(c)); err != nil {
		return err
	}
	return c.JSON(appt)
}
