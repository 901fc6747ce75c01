package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatIDR(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "Rp0"},
		{500, "Rp500"},
		{1500, "Rp1.500"},
		{150000, "Rp150.000"},
		{1500000, "Rp1.500.000"},
		{1234567890, "Rp1.234.567.890"},
		{-25000, "-Rp25.000"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatIDR(tc.amount))
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	n := GenerateOrderNumber()
	assert.True(t, strings.HasPrefix(n, "BMS-"))

	m := GenerateOrderNumber()
	assert.NotEqual(t, n, m)
}

func TestGeneratePaymentReference(t *testing.T) {
	ref := GeneratePaymentReference()
	assert.True(t, strings.HasPrefix(ref, "PAY-"))

	// PAY-YYYYMMDDHHMMSS-NNNNNN
	parts := strings.Split(ref, "-")
	assert.Len(t, parts, 3)
	assert.Len(t, parts[1], 14)
	assert.Len(t, parts[2], 6)

	assert.NotEqual(t, ref, GeneratePaymentReference())
}

func TestPtrHelpers(t *testing.T) {
	s := StrPtr("xnd-123")
	assert.Equal(t, "xnd-123", *s)

	n := Int64Ptr(500000)
	assert.Equal(t, int64(500000), *n)

	assert.Equal(t, "", PtrString(nil))
	assert.Equal(t, "xnd-123", PtrString(s))
}
