package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-console/internal/apperr"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in       float64
		decimals int
		want     string
	}{
		{0, 2, "0,00"},
		{12.3, 2, "12,30"},
		{999.999, 2, "1.000,00"},
		{1234.56, 2, "1.234,56"},
		{1234567.891, 2, "1.234.567,89"},
		{-9876.5, 1, "-9.876,5"},
		{-0.001, 2, "0,00"},
		{100, 0, "100"},
		{1000, 0, "1.000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(tc.in, tc.decimals), "FormatNumber(%v, %d)", tc.in, tc.decimals)
	}
}

func TestKgTonsRoundTrip(t *testing.T) {
	for _, kg := range []int64{0, 10, 20, 990, 1000, 12340, 1234560, 987654320} {
		assert.Equal(t, kg, TonsToKg(KgToTons(kg)), "kg=%d", kg)
	}
}

func TestKgToTonsRounds(t *testing.T) {
	assert.Equal(t, 1.23, KgToTons(1234))
	assert.Equal(t, 1.24, KgToTons(1235))
	assert.Equal(t, 0.0, KgToTons(4))
}

func TestFormatTons(t *testing.T) {
	assert.Equal(t, "1.234,57", FormatTons(1234567))
	assert.Equal(t, "0,00", FormatTons(0))
}

func TestShare(t *testing.T) {
	assert.Equal(t, 66.7, Share(100, 150))
	assert.Equal(t, 33.3, Share(50, 150))
	assert.Equal(t, 100.0, Share(25, 25))
	assert.Equal(t, 0.0, Share(10, 0))
	assert.Equal(t, 0.0, Share(0, 0))
	assert.Equal(t, "66,7%", FormatPercent(Share(100, 150)))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05.03.2024", FormatDate("2024-03-05"))
	assert.Equal(t, "31.12.2025", FormatDate("2025-12-31T10:11:12Z"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
	assert.Equal(t, "", FormatDate("  "))
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1.234,56":  1234.56,
		"12,5":      12.5,
		"1234.56":   1234.56,
		"1.234.567": 1234567,
		" 3,25 t":   3.25,
	}
	for in, want := range cases {
		got, err := ParseNumber(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}

	_, err := ParseNumber("abc")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = ParseNumber("")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
