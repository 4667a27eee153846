package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	text := `ACME POWER CO
Receipt of payment
Transaction ID: txn_abc123
Date: 2024-02-15
Amount: $ 1,234.56
Thank you for your business.`

	f := parseFields(text)

	assert.Equal(t, "txn_abc123", f.TransactionID)
	require.True(t, f.HasDate)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), f.Date)
	require.True(t, f.HasAmount)
	assert.InDelta(t, 1234.56, f.Amount, 0.001)
}

func TestParseFieldsMissing(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty text", ""},
		{"no recognizable fields", "Thanks for shopping with us!"},
		{"id without txn_ prefix", "Transaction ID: 12345\nAmount: twenty dollars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseFields(tt.text)
			assert.Empty(t, f.TransactionID)
			assert.False(t, f.HasDate)
			assert.False(t, f.HasAmount)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"120.00", 120.00, false},
		{"$120.00", 120.00, false},
		{" $1,234.5 ", 1234.5, false},
		{"120", 120.00, false},
		{"", 0, true},
		{"twelve", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestSameCents(t *testing.T) {
	assert.True(t, sameCents(120.00, -120.00), "sign is ignored")
	assert.True(t, sameCents(120.004, 120.00), "sub-cent noise is tolerated")
	assert.False(t, sameCents(120.00, 120.01), "one cent off is a mismatch")
}
