package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uhcare-backend/models"
)

func TestSetMethodLocksAfterFirstWrite(t *testing.T) {
	p := &models.Payment{Status: models.PaymentUnpaid}

	require.NoError(t, SetMethod(p, models.MethodCash, false))
	assert.Equal(t, models.MethodCash, p.Method)

	// Same method again is a no-op, not a violation.
	require.NoError(t, SetMethod(p, models.MethodCash, false))

	err := SetMethod(p, models.MethodOnline, false)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, models.MethodCash, p.Method, "failed change must leave the method untouched")

	require.NoError(t, SetMethod(p, models.MethodOnline, true))
	assert.Equal(t, models.MethodOnline, p.Method)
}

func TestSetMethodRejectsUnknownMethod(t *testing.T) {
	p := &models.Payment{Status: models.PaymentUnpaid}
	var ve *ValidationError
	assert.ErrorAs(t, SetMethod(p, "crypto", false), &ve)
}

func TestSubmitProof(t *testing.T) {
	t.Run("happy path locks method online and moves to pending", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentUnpaid}
		require.NoError(t, SubmitProof(p, ProofInput{TransactionID: " TXN-77 ", ProofURL: "https://cdn/proof.png"}))
		assert.Equal(t, models.PaymentPending, p.Status)
		assert.Equal(t, models.MethodOnline, p.Method)
		assert.Equal(t, "TXN-77", p.TransactionID)
		assert.Equal(t, "https://cdn/proof.png", p.ProofURL)
	})

	t.Run("requires a transaction id", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentUnpaid}
		var ve *ValidationError
		require.ErrorAs(t, SubmitProof(p, ProofInput{ProofURL: "https://cdn/proof.png"}), &ve)
		assert.Equal(t, models.PaymentUnpaid, p.Status)
	})

	t.Run("rejected for a cash-locked payment", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentUnpaid, Method: models.MethodCash}
		var ve *ValidationError
		require.ErrorAs(t, SubmitProof(p, ProofInput{TransactionID: "TXN-1"}), &ve)
		assert.Equal(t, models.MethodCash, p.Method)
	})

	t.Run("rejected for terminal statuses", func(t *testing.T) {
		for _, st := range []models.PaymentStatus{models.PaymentPaid, models.PaymentRefunded} {
			p := &models.Payment{Status: st, Method: models.MethodOnline}
			var ve *ValidationError
			assert.ErrorAs(t, SubmitProof(p, ProofInput{TransactionID: "TXN-1"}), &ve, "status %s", st)
		}
	})
}

func TestConfirmCash(t *testing.T) {
	now := time.Now()
	delivered := &Charge{Kind: models.KindPharmacyOrder, ID: 1, Status: models.StatusDelivered, Finalized: true}

	t.Run("self-confirmation after delivery, no verifier", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentUnpaid, Method: models.MethodCash}
		require.NoError(t, ConfirmCash(p, delivered, now))
		assert.Equal(t, models.PaymentPaid, p.Status)
		assert.Nil(t, p.VerifiedByID)
		require.NotNil(t, p.VerifiedAt)
		require.NotNil(t, p.PaymentDate)
	})

	t.Run("blocked before delivery", func(t *testing.T) {
		pending := &Charge{Kind: models.KindPharmacyOrder, ID: 1, Status: models.StatusShipped, Finalized: true}
		p := &models.Payment{Status: models.PaymentUnpaid, Method: models.MethodCash}
		var ve *ValidationError
		require.ErrorAs(t, ConfirmCash(p, pending, now), &ve)
		assert.Equal(t, models.PaymentUnpaid, p.Status)
	})

	t.Run("blocked without a linked charge", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentUnpaid, Method: models.MethodCash}
		var ve *ValidationError
		assert.ErrorAs(t, ConfirmCash(p, nil, now), &ve)
	})

	t.Run("blocked for an online-locked payment", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentUnpaid, Method: models.MethodOnline}
		var ve *ValidationError
		assert.ErrorAs(t, ConfirmCash(p, delivered, now), &ve)
	})

	t.Run("active rental counts as delivered", func(t *testing.T) {
		active := &Charge{Kind: models.KindEquipmentRental, ID: 2, Status: models.StatusActive, Finalized: true}
		p := &models.Payment{Status: models.PaymentUnpaid, Method: models.MethodCash}
		assert.NoError(t, ConfirmCash(p, active, now))
	})
}

func TestStaffApproveAndReject(t *testing.T) {
	now := time.Now()

	t.Run("approve pending online payment", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentPending, Method: models.MethodOnline, TransactionID: "TXN-9"}
		require.NoError(t, StaffApprove(p, "staff-1", now))
		assert.Equal(t, models.PaymentPaid, p.Status)
		require.NotNil(t, p.VerifiedByID)
		assert.Equal(t, "staff-1", *p.VerifiedByID)
	})

	t.Run("approve works for cash too", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentUnpaid, Method: models.MethodCash}
		assert.NoError(t, StaffApprove(p, "staff-1", now))
	})

	t.Run("double approval is rejected", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentPaid}
		var ve *ValidationError
		assert.ErrorAs(t, StaffApprove(p, "staff-1", now), &ve)
	})

	t.Run("reject sends pending back to unpaid with a note", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentPending, Method: models.MethodOnline}
		require.NoError(t, StaffReject(p, "blurry screenshot"))
		assert.Equal(t, models.PaymentUnpaid, p.Status)
		assert.Contains(t, p.Notes, "rejected: blurry screenshot")
	})

	t.Run("cannot reject a verified payment", func(t *testing.T) {
		p := &models.Payment{Status: models.PaymentPaid}
		var ve *ValidationError
		assert.ErrorAs(t, StaffReject(p, "too late"), &ve)
	})
}

func TestRefundGuards(t *testing.T) {
	for _, st := range []models.PaymentStatus{models.PaymentUnpaid, models.PaymentPending, models.PaymentPartial} {
		p := &models.Payment{Status: st}
		require.NoError(t, Refund(p), "status %s", st)
		assert.Equal(t, models.PaymentRefunded, p.Status)
	}
	for _, st := range []models.PaymentStatus{models.PaymentPaid, models.PaymentRefunded} {
		p := &models.Payment{Status: st}
		var ve *ValidationError
		require.ErrorAs(t, Refund(p), &ve, "status %s", st)
		assert.Equal(t, st, p.Status)
	}
}
