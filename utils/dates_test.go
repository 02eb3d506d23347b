package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotTimes(t *testing.T) {
	slots := SlotTimes()
	require.Len(t, slots, 12)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "19:00", slots[11])

	assert.True(t, IsSlotTime("13:00"))
	assert.False(t, IsSlotTime("13:30"))
	assert.False(t, IsSlotTime("07:00"))
	assert.False(t, IsSlotTime("20:00"))
}

func TestNormalizeTime(t *testing.T) {
	for in, want := range map[string]string{
		"14:00":    "14:00",
		"14:00:00": "14:00",
		" 9:00 ":   "09:00",
	} {
		got, err := NormalizeTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "2pm", "25:00"} {
		_, err := NormalizeTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.June, d.Month())

	_, err = ParseDate("2025-02-30")
	assert.Error(t, err)
	_, err = ParseDate("06/01/2025")
	assert.Error(t, err)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "3:00 PM", DisplayTime("15:00"))
	assert.Equal(t, "8:00 AM", DisplayTime("08:00"))
	assert.Equal(t, "bogus", DisplayTime("bogus"))
	assert.Equal(t, "Jun 01, 2025", DisplayDate("2025-06-01"))
	assert.Equal(t, "$85.00", FormatMoney(decimal.NewFromInt(85)))
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysBetween(start, end))
}

func TestGenerateRandomString(t *testing.T) {
	a := GenerateRandomString(10)
	b := GenerateRandomString(10)
	assert.Len(t, a, 10)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.Contains(t, randomAlphabet, string(r))
	}
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+1 (555) 123-4567"))
	assert.True(t, ValidatePhone("447911123456"))
	assert.False(t, ValidatePhone("call me"))
	assert.False(t, ValidatePhone("+0123456"))
	assert.False(t, ValidatePhone("12"))

	n, ok := NormalizePhone(" +1 (555) 123-4567 ")
	assert.True(t, ok)
	assert.Equal(t, "+15551234567", n)
}
