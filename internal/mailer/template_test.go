package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrderConfirmation(t *testing.T) {
	data := ConfirmationData{
		StoreName:   "Benangmas Atelier",
		OrderNumber: "BMS-20260831-0001",
		Lines: []ConfirmationLine{
			{Name: "Kebaya Encim", SKU: "KB-A", Quantity: 2, UnitPrice: "Rp150.000", Total: "Rp300.000"},
			{Name: "Selendang Batik", SKU: "SL-B", Quantity: 1, UnitPrice: "Rp200.000", Total: "Rp200.000"},
		},
		Subtotal: "Rp500.000",
		Shipping: "Rp75.000",
		Discount: "Rp25.000",
		Total:    "Rp550.000",
	}

	body, err := RenderOrderConfirmation(data)
	require.NoError(t, err)

	assert.Contains(t, body, "BMS-20260831-0001")
	assert.Contains(t, body, "Kebaya Encim")
	assert.Contains(t, body, "Selendang Batik")
	assert.Contains(t, body, "Subtotal: Rp500.000")
	assert.Contains(t, body, "Discount: -Rp25.000")
	assert.Contains(t, body, "<strong>Total: Rp550.000</strong>")
	assert.Contains(t, body, "Benangmas Atelier")
}

func TestRenderOrderConfirmation_NoDiscount(t *testing.T) {
	body, err := RenderOrderConfirmation(ConfirmationData{
		OrderNumber: "BMS-20260831-0002",
		Subtotal:    "Rp500.000",
		Shipping:    "Rp75.000",
		Total:       "Rp575.000",
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "Discount")
}
