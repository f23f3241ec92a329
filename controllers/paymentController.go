package controllers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"uhcare-backend/database"
	"uhcare-backend/ledger"
	"uhcare-backend/middlewares"
	"uhcare-backend/models"
)

// createPaymentFor writes the single Payment row every checkout produces:
// unpaid, amount fixed to the chargeable's total, method pre-filled from the
// user's stored default when one exists.
func createPaymentFor(tx *gorm.DB, userID string, kind models.ChargeableKind, chargeID uint, amount decimal.Decimal) (models.Payment, error) {
	var pref models.UserPaymentMethod
	tx.Where("user_id = ? AND is_default = ?", userID, true).
		Order("created_at DESC").
		First(&pref)

	payment := models.Payment{
		PatientID:      userID,
		ChargeableKind: kind,
		ChargeableID:   chargeID,
		Amount:         amount,
		Method:         pref.Method, // empty when no default is stored
		Status:         models.PaymentUnpaid,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

// refundPaymentsFor voids the payments linked to a cancelled chargeable.
// Already paid/refunded payments are left alone.
func refundPaymentsFor(tx *gorm.DB, kind models.ChargeableKind, chargeID uint, actor string) error {
	var payments []models.Payment
	if err := tx.Where("chargeable_kind = ? AND chargeable_id = ?", kind, chargeID).Find(&payments).Error; err != nil {
		return err
	}
	for i := range payments {
		p := &payments[i]
		from := p.Status
		if err := ledger.Refund(p); err != nil {
			continue
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		recordPaymentEvent(tx, p, "refund", actor, from)
	}
	return nil
}

// recordPaymentEvent appends an audit row with a JSON snapshot of the payment
// after the transition. Best-effort: an audit failure must not roll back the
// payment itself.
func recordPaymentEvent(tx *gorm.DB, p *models.Payment, action, actor string, from models.PaymentStatus) {
	snap, err := json.Marshal(p)
	if err != nil {
		return
	}
	tx.Create(&models.PaymentEvent{
		PaymentID:  p.ID,
		Action:     action,
		Actor:      actor,
		FromStatus: string(from),
		ToStatus:   string(p.Status),
		Snapshot:   datatypes.JSON(snap),
	})
}

// loadOwnedPayment fetches a payment owned by the requesting user; staff may
// load any payment.
func loadOwnedPayment(c *fiber.Ctx, tx *gorm.DB) (*models.Payment, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	var payment models.Payment
	q := tx.Where("id = ?", id)
	if currentRole(c) != models.RoleStaff {
		q = q.Where("patient_id = ?", currentUser(c))
	}
	if err := q.First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func GetPayments(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	q := tx.Where("patient_id = ?", currentUser(c)).Order("created_at DESC")
	if status := c.Query("status"); status != "" && status != "all" {
		q = q.Where("payment_status = ?", status)
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payments": payments})
}

func GetPayment(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	payment, err := loadOwnedPayment(c, tx)
	if err != nil {
		return err
	}

	var events []models.PaymentEvent
	tx.Where("payment_id = ?", payment.ID).Order("created_at DESC").Find(&events)

	return c.JSON(fiber.Map{"payment": payment, "events": events})
}

type setMethodDTO struct {
	Method        models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash online"`
	AllowOverride bool                 `json:"allow_override"`
}

// SetPaymentMethod locks in the payment channel. allow_override is honored for
// staff only; for everyone else the method is immutable once set.
func SetPaymentMethod(c *fiber.Ctx) error {
	var data setMethodDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	payment, err := loadOwnedPayment(c, tx)
	if err != nil {
		return err
	}

	allowOverride := data.AllowOverride && currentRole(c) == models.RoleStaff
	if err := ledger.SetMethod(payment, data.Method, allowOverride); err != nil {
		return err
	}
	if err := tx.Save(payment).Error; err != nil {
		return err
	}
	recordPaymentEvent(tx, payment, "set_method", currentUser(c), payment.Status)
	return c.JSON(payment)
}

type proofDTO struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	ProofURL      string `json:"payment_proof_url" validate:"omitempty,url"`
}

// SubmitProof stores online-payment evidence and moves the payment to pending
// verification.
func SubmitProof(c *fiber.Ctx) error {
	var data proofDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	payment, err := loadOwnedPayment(c, tx)
	if err != nil {
		return err
	}

	from := payment.Status
	if err := ledger.SubmitProof(payment, ledger.ProofInput{
		TransactionID: data.TransactionID,
		ProofURL:      data.ProofURL,
	}); err != nil {
		return err
	}
	if err := tx.Save(payment).Error; err != nil {
		return err
	}
	recordPaymentEvent(tx, payment, "submit_proof", "", from)
	return c.JSON(payment)
}

// ConfirmCashPayment is the patient's self-confirmation of a cash payment,
// gated on the linked order reaching its delivered/completed terminal.
func ConfirmCashPayment(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	payment, err := loadOwnedPayment(c, tx)
	if err != nil {
		return err
	}

	charge, err := ledger.ChargeFor(tx, payment)
	if err != nil {
		return err
	}

	from := payment.Status
	if err := ledger.ConfirmCash(payment, charge, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Save(payment).Error; err != nil {
		return err
	}
	recordPaymentEvent(tx, payment, "confirm_cash", "", from)
	return c.JSON(payment)
}

type verifyDTO struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason"`
}

// VerifyPayment is the staff verification endpoint: approve marks paid (any
// method), reject sends a pending payment back to unpaid with a note.
func VerifyPayment(c *fiber.Ctx) error {
	var data verifyDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	payment, err := loadOwnedPayment(c, tx)
	if err != nil {
		return err
	}

	from := payment.Status
	staffID := currentUser(c)
	if data.Action == "approve" {
		if err := ledger.StaffApprove(payment, staffID, time.Now().UTC()); err != nil {
			return err
		}
	} else {
		if err := ledger.StaffReject(payment, data.Reason); err != nil {
			return err
		}
	}
	if err := tx.Save(payment).Error; err != nil {
		return err
	}
	recordPaymentEvent(tx, payment, "staff_"+data.Action, staffID, from)
	return c.JSON(payment)
}

// GetCashCommitments lists unpaid cash-method payments: future commitments
// deferred until service delivery. The rollups come from the same
// classification the balance uses, so stale payments on cancelled orders are
// excluded here too.
func GetCashCommitments(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}

	records, err := ledger.NewGormSource(tx).Records(c.Context(), currentUser(c))
	if err != nil {
		return err
	}
	cl := ledger.Classify(records)

	cashPaid := decimal.Zero
	for _, r := range records {
		if r.Voided() {
			continue
		}
		if r.Status == models.PaymentPaid && r.Method == models.MethodCash {
			cashPaid = cashPaid.Add(r.Amount)
		}
	}

	payments := []models.Payment{}
	if ids := cl.IDs[ledger.BucketCashCommitted]; len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Order("created_at DESC").Find(&payments).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{
		"payments":             payments,
		"cash_committed_total": cl.CashCommitted,
		"cash_paid_total":      cashPaid,
		"cash_total":           cl.CashCommitted.Add(cashPaid),
	})
}

// ClassifyPayments returns the ledger's bucket partition for list rendering.
func ClassifyPayments(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	svc := ledger.NewService(ledger.NewGormSource(tx))
	cl, err := svc.ClassifyPayments(c.Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(cl)
}

type paymentMethodDTO struct {
	Method    models.PaymentMethod `json:"method" validate:"required,oneof=cash online"`
	QRCodeURL string               `json:"qr_code_url" validate:"omitempty,url"`
	BankInfo  string               `json:"bank_info"`
	IsDefault bool                 `json:"is_default"`
}

// CreateUserPaymentMethod stores a payment preference; marking one default
// clears the previous default.
func CreateUserPaymentMethod(c *fiber.Ctx) error {
	var data paymentMethodDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	userID := currentUser(c)

	if data.IsDefault {
		if err := tx.Model(&models.UserPaymentMethod{}).
			Where("user_id = ?", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}
	}

	pref := models.UserPaymentMethod{
		UserID:    userID,
		Method:    data.Method,
		QRCodeURL: data.QRCodeURL,
		BankInfo:  data.BankInfo,
		IsDefault: data.IsDefault,
	}
	if err := tx.Create(&pref).Error; err != nil {
		return err
	}
	return c.JSON(pref)
}

func GetUserPaymentMethods(c *fiber.Ctx) error {
	tx, err := database.GetRequestDB(c)
	if err != nil {
		return err
	}
	var prefs []models.UserPaymentMethod
	if err := tx.Where("user_id = ?", currentUser(c)).
		Order("is_default DESC, created_at DESC").
		Find(&prefs).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payment_methods": prefs})
}
