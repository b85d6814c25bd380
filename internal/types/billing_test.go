package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCycleFrequency(t *testing.T) {
	tests := []struct {
		input   string
		want    CycleFrequency
		wantErr bool
	}{
		{"monthly", CycleFrequencyMonthly, false},
		{"  Weekly ", CycleFrequencyWeekly, false},
		{"YEARLY", CycleFrequencyYearly, false},
		{"fortnightly", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCycleFrequency(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestCycleFrequencyInterval(t *testing.T) {
	assert.Equal(t, "week", CycleFrequencyWeekly.Interval())
	assert.Equal(t, "month", CycleFrequencyMonthly.Interval())
	assert.Equal(t, "year", CycleFrequencyYearly.Interval())
}

func TestCentsFromDecimalString(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"19.99", 1999, false},
		{"15", 1500, false},
		{"0.01", 1, false},
		{" 7.50 ", 750, false},
		{"10.999", 0, true},
		{"0", 0, true},
		{"-5.00", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := CentsFromDecimalString(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestDecimalStringFromCents(t *testing.T) {
	assert.Equal(t, "19.99", DecimalStringFromCents(1999))
	assert.Equal(t, "15.00", DecimalStringFromCents(1500))
	assert.Equal(t, "0.01", DecimalStringFromCents(1))

	// Round trip holds for anything with at most two decimal places
	cents, err := CentsFromDecimalString(DecimalStringFromCents(12345))
	require.NoError(t, err)
	assert.Equal(t, int64(12345), cents)
}
