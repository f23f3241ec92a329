package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PersonalAppointment statuses. Cancellation is split by actor; both variants
// count as terminal cancellations.
const (
	StatusCancelledByPatient  = "cancelled_by_patient"
	StatusCancelledByProvider = "cancelled_by_provider"
	StatusNoShow              = "no_show"
)

const (
	AppointmentTypeConsultation = "consultation"
	AppointmentTypeFollowUp     = "follow_up"
	AppointmentTypeEmergency    = "emergency"
	AppointmentTypeScreening    = "screening"
	AppointmentTypeCounseling   = "counseling"
)

const (
	LocationVideo = "video"
	LocationPhone = "phone"
)

// PersonalAppointment is a direct patient-provider consultation, separate from
// marketplace service bookings. TotalFee = ConsultationFee + AdditionalCharges,
// recomputed on every save.
type PersonalAppointment struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	PatientID  string `json:"patient_id" gorm:"not null;index:idx_personal_appointments_patient_status,priority:1"`
	Patient    User   `json:"-" gorm:"foreignKey:PatientID;references:Id"`
	ProviderID string `json:"provider_id" gorm:"not null;index"`
	Provider   User   `json:"-" gorm:"foreignKey:ProviderID;references:Id"`

	AppointmentType string    `json:"appointment_type" gorm:"type:VARCHAR(50);not null"`
	AppointmentDate time.Time `json:"appointment_date" gorm:"type:date;not null"`
	AppointmentTime string    `json:"appointment_time" gorm:"type:time;not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"default:30"`

	LocationType string `json:"location_type" gorm:"type:VARCHAR(20);default:'video'"`
	VideoLink    string `json:"video_link"`

	Reason       string `json:"reason" gorm:"not null"`
	Symptoms     string `json:"symptoms"`
	PatientPhone string `json:"patient_phone" gorm:"size:32"`

	ConsultationFee   decimal.Decimal `json:"consultation_fee" gorm:"type:numeric(10,2)"`
	AdditionalCharges decimal.Decimal `json:"additional_charges" gorm:"type:numeric(10,2)"`
	TotalFee          decimal.Decimal `json:"total_fee" gorm:"type:numeric(10,2)"`

	Status string `json:"status" gorm:"type:VARCHAR(50);not null;default:'pending';index:idx_personal_appointments_patient_status,priority:2"`

	PatientNotes       string     `json:"patient_notes"`
	ProviderNotes      string     `json:"provider_notes"`
	Diagnosis          string     `json:"diagnosis"`
	Prescription       string     `json:"prescription"`
	CancellationReason string     `json:"cancellation_reason"`
	CancelledAt        *time.Time `json:"cancelled_at"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (a *PersonalAppointment) BeforeSave(tx *gorm.DB) (err error) {
	a.TotalFee = a.ConsultationFee.Add(a.AdditionalCharges)
	return
}
