package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentChargeableLink(t *testing.T) {
	t.Run("kind and id together is valid", func(t *testing.T) {
		p := Payment{ChargeableKind: KindPharmacyOrder, ChargeableID: 12}
		assert.NoError(t, p.BeforeSave(nil))
	})

	t.Run("fully unlinked is valid", func(t *testing.T) {
		p := Payment{}
		assert.NoError(t, p.BeforeSave(nil))
	})

	t.Run("kind without id is rejected", func(t *testing.T) {
		p := Payment{ChargeableKind: KindServiceBooking}
		assert.ErrorIs(t, p.BeforeSave(nil), ErrChargeableLink)
	})

	t.Run("id without kind is rejected", func(t *testing.T) {
		p := Payment{ChargeableID: 12}
		assert.ErrorIs(t, p.BeforeSave(nil), ErrChargeableLink)
	})
}

func TestPaymentHasProof(t *testing.T) {
	assert.False(t, (&Payment{}).HasProof())
	assert.True(t, (&Payment{TransactionID: "TXN-1"}).HasProof())
	assert.True(t, (&Payment{ProofURL: "https://cdn/p.png"}).HasProof())
}

func TestServiceBookingTotalRecomputed(t *testing.T) {
	b := ServiceBooking{
		ServicePrice:      decimal.RequireFromString("1000.00"),
		AdditionalCharges: decimal.RequireFromString("150.00"),
		TotalAmount:       decimal.RequireFromString("9999.99"), // stale, must be overwritten
	}
	require.NoError(t, b.BeforeSave(nil))
	assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("1150.00")))

	final := decimal.RequireFromString("900.00")
	b.FinalPrice = &final
	require.NoError(t, b.BeforeSave(nil))
	assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("1050.00")), "final price overrides service price")
}

func TestServiceBookingNegativeAdditionalChargesActAsDiscount(t *testing.T) {
	b := ServiceBooking{
		ServicePrice:      decimal.RequireFromString("500.00"),
		AdditionalCharges: decimal.RequireFromString("-50.00"),
	}
	require.NoError(t, b.BeforeSave(nil))
	assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("450.00")))
}

func TestPersonalAppointmentTotalRecomputed(t *testing.T) {
	a := PersonalAppointment{
		ConsultationFee:   decimal.RequireFromString("500.00"),
		AdditionalCharges: decimal.RequireFromString("75.50"),
	}
	require.NoError(t, a.BeforeSave(nil))
	assert.True(t, a.TotalFee.Equal(decimal.RequireFromString("575.50")))
}

func TestEquipmentRentalTotalRollsUpAllCharges(t *testing.T) {
	r := EquipmentRental{
		RentalPrice:     decimal.RequireFromString("700.00"),
		SecurityDeposit: decimal.RequireFromString("100.00"),
		DeliveryCharge:  decimal.RequireFromString("50.00"),
		LateFee:         decimal.RequireFromString("20.00"),
		DamageCharge:    decimal.RequireFromString("5.00"),
	}
	require.NoError(t, r.BeforeSave(nil))
	assert.True(t, r.TotalAmount.Equal(decimal.RequireFromString("875.00")))
}

func TestEquipmentPurchaseTotals(t *testing.T) {
	p := EquipmentPurchase{
		Quantity:       3,
		UnitPrice:      decimal.RequireFromString("1200.00"),
		DeliveryCharge: decimal.RequireFromString("200.00"),
		Discount:       decimal.RequireFromString("100.00"),
	}
	require.NoError(t, p.BeforeSave(nil))
	assert.True(t, p.Subtotal.Equal(decimal.RequireFromString("3600.00")))
	assert.True(t, p.TotalAmount.Equal(decimal.RequireFromString("3700.00")))
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber("EP")
	assert.Len(t, n, 10)
	assert.Equal(t, "EP", n[:2])
	assert.NotEqual(t, n, NewOrderNumber("EP"))
}
