package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchDTO struct {
	Name   *string          `json:"name"`
	Fee    *decimal.Decimal `json:"consultation_fee"`
	Hidden *string          `json:"-"`
	Status *string          `json:"status"`
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNormalizePtrDTO(t *testing.T) {
	dto := patchDTO{
		Name: strPtr("  Dr. Rivera  "),
		Fee:  decPtr("199.999"),
	}
	NormalizePtrDTO(&dto)

	assert.Equal(t, "Dr. Rivera", *dto.Name)
	assert.True(t, dto.Fee.Equal(decimal.RequireFromString("200.00")), "decimals round to 2 places")
	assert.Nil(t, dto.Status, "untouched nils stay nil")
}

func TestNormalizeDTO(t *testing.T) {
	dto := struct {
		Address string
		Price   decimal.Decimal
		Count   int
	}{
		Address: "  12 Main St ",
		Price:   decimal.RequireFromString("10.005"),
		Count:   3,
	}
	NormalizeDTO(&dto)

	assert.Equal(t, "12 Main St", dto.Address)
	assert.True(t, dto.Price.Equal(decimal.RequireFromString("10.01")))
	assert.Equal(t, 3, dto.Count)
}

func TestUpdatesFromPtrDTO(t *testing.T) {
	dto := patchDTO{
		Name:   strPtr("Physio session"),
		Fee:    decPtr("450.00"),
		Hidden: strPtr("never"),
	}
	updates := UpdatesFromPtrDTO(&dto, map[string]string{"name": "service_name"})

	require.Len(t, updates, 2)
	assert.Equal(t, "Physio session", updates["service_name"])
	assert.NotContains(t, updates, "status", "nil fields are omitted")
	assert.NotContains(t, updates, "-", "json:\"-\" fields are omitted")
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 25, ParseIntDefault(" 25 ", 10))
	assert.Equal(t, 10, ParseIntDefault("abc", 10))
	assert.Equal(t, 10, ParseIntDefault("-3", 10))
}
