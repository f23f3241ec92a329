package ledger

import (
	"strings"
	"time"

	"uhcare-backend/models"
)

// Payment state machine:
//
//	unpaid -> pending -> paid        (online proof, then staff approval)
//	unpaid -> paid                   (cash self-confirm, or staff direct approve)
//	unpaid|pending -> refunded       (chargeable cancellation side effect)
//
// paid and refunded are terminal. Guard violations return *ValidationError and
// leave the payment untouched. The functions mutate in memory only; persisting
// happens in the caller's transaction.

// SetMethod locks in the payment channel. The first write from an unset method
// always succeeds; any later change requires allowOverride, which is an
// explicit parameter so the override is visible and auditable at the call site.
func SetMethod(p *models.Payment, m models.PaymentMethod, allowOverride bool) error {
	if m != models.MethodCash && m != models.MethodOnline {
		return invalid("unknown payment method")
	}
	if err := CheckMethodChange(p.Method, m, allowOverride); err != nil {
		return err
	}
	p.Method = m
	return nil
}

// CheckMethodChange enforces the method-lock invariant.
func CheckMethodChange(old, next models.PaymentMethod, allowOverride bool) error {
	if old == "" || old == next || allowOverride {
		return nil
	}
	return invalid("payment method is locked and cannot be changed once set")
}

// ProofInput carries the evidence submitted with an online payment.
type ProofInput struct {
	TransactionID string
	ProofURL      string
}

// SubmitProof moves an online payment to pending verification. The method is
// locked to online on first submission; a payment already committed to cash
// cannot be switched here.
func SubmitProof(p *models.Payment, in ProofInput) error {
	if p.Status == models.PaymentPaid {
		return invalid("payment has already been verified")
	}
	if p.Status == models.PaymentRefunded {
		return invalid("payment has been refunded")
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		return invalid("a transaction id is required to submit proof")
	}
	if err := SetMethod(p, models.MethodOnline, false); err != nil {
		return err
	}
	p.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.ProofURL != "" {
		p.ProofURL = in.ProofURL
	}
	p.Status = models.PaymentPending
	return nil
}

// ConfirmCash is the patient's self-confirmation of a cash payment. It is only
// reachable once the linked chargeable reached its delivered/completed
// terminal. VerifiedByID stays nil: that is what distinguishes
// self-confirmation from staff approval.
func ConfirmCash(p *models.Payment, charge *Charge, now time.Time) error {
	if p.Status == models.PaymentPaid {
		return invalid("payment has already been marked as paid")
	}
	if p.Status == models.PaymentRefunded {
		return invalid("payment has been refunded")
	}
	if err := SetMethod(p, models.MethodCash, false); err != nil {
		return err
	}
	if charge == nil {
		return invalid("payment is not linked to a confirmable order")
	}
	if !charge.Delivered() {
		return invalid("payment can only be confirmed after the service is delivered or completed")
	}
	p.Status = models.PaymentPaid
	p.PaymentDate = &now
	p.VerifiedByID = nil
	p.VerifiedAt = &now
	return nil
}

// StaffApprove marks a payment paid on behalf of staff, for any method.
func StaffApprove(p *models.Payment, staffID string, now time.Time) error {
	if p.Status == models.PaymentPaid {
		return invalid("payment has already been verified")
	}
	if p.Status == models.PaymentRefunded {
		return invalid("payment has been refunded")
	}
	p.Status = models.PaymentPaid
	p.PaymentDate = &now
	p.VerifiedByID = &staffID
	p.VerifiedAt = &now
	return nil
}

// StaffReject records the rejection reason and sends a pending payment back to
// unpaid so the patient can resubmit.
func StaffReject(p *models.Payment, reason string) error {
	if p.Status == models.PaymentPaid {
		return invalid("a verified payment cannot be rejected")
	}
	if p.Status == models.PaymentRefunded {
		return invalid("payment has been refunded")
	}
	if reason != "" {
		if p.Notes != "" {
			p.Notes += "\n"
		}
		p.Notes += "rejected: " + reason
	}
	if p.Status == models.PaymentPending {
		p.Status = models.PaymentUnpaid
	}
	return nil
}

// Refund voids a payment as a side effect of its chargeable being cancelled.
// Already-paid and already-refunded payments are left alone.
func Refund(p *models.Payment) error {
	if p.Status == models.PaymentPaid || p.Status == models.PaymentRefunded {
		return invalid("payment is already " + string(p.Status))
	}
	p.Status = models.PaymentRefunded
	return nil
}
