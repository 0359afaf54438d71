package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-console/internal/apperr"
	"waste-console/internal/models"
)

var (
	today   = time.Date(2025, time.June, 1, 15, 30, 0, 0, time.UTC)
	sectors = []models.Sector{
		{ID: "sec-a", Number: 1},
		{ID: "sec-b", Number: 2},
		{ID: "sec-c", Number: 3},
	}
)

func ptr[T any](v T) *T { return &v }

func TestNormalizePastYear(t *testing.T) {
	f, err := Normalize(Input{Year: ptr(2024)}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", f.FromString())
	assert.Equal(t, "2024-12-31", f.ToString())
	assert.Equal(t, 2024, f.Year)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 10, f.PerPage)
}

func TestNormalizeCurrentYearEndsToday(t *testing.T) {
	f, err := Normalize(Input{Year: ptr(2025)}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", f.FromString())
	assert.Equal(t, "2025-06-01", f.ToString())
}

func TestNormalizeKeepsRangeInsideYear(t *testing.T) {
	f, err := Normalize(Input{Year: ptr(2024), From: "2024-03-01", To: "2024-03-31"}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", f.FromString())
	assert.Equal(t, "2024-03-31", f.ToString())
}

func TestNormalizeReplacesStaleRangeOutsideYear(t *testing.T) {
	f, err := Normalize(Input{Year: ptr(2024), From: "2023-03-01", To: "2023-03-31"}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", f.FromString())
	assert.Equal(t, "2024-12-31", f.ToString())
}

func TestNormalizeOverrideKeepsExplicitRange(t *testing.T) {
	f, err := Normalize(Input{Year: ptr(2024), From: "2023-11-01", To: "2024-02-28", Override: true}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, "2023-11-01", f.FromString())
	assert.Equal(t, "2024-02-28", f.ToString())
	assert.Equal(t, 2024, f.Year)
}

func TestNormalizeRangeWithoutYear(t *testing.T) {
	f, err := Normalize(Input{From: "2023-05-01", To: "2023-05-31"}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, 2023, f.Year)
	assert.Equal(t, "2023-05-01", f.FromString())

	f, err = Normalize(Input{From: "2025-02-01"}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", f.ToString())

	f, err = Normalize(Input{To: "2022-02-01"}, today, sectors)
	require.NoError(t, err)
	assert.Equal(t, "2022-01-01", f.FromString())
}

func TestNormalizeUnresolvable(t *testing.T) {
	_, err := Normalize(Input{}, today, sectors)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidFilter))
}

func TestNormalizeValidation(t *testing.T) {
	cases := []Input{
		{Year: ptr(2026)},
		{Year: ptr(1999)},
		{Year: ptr(2024), From: "01.03.2024"},
		{From: "2024-05-01", To: "2024-04-01"},
		{Year: ptr(2024), PerPage: 25},
		{Year: ptr(2024), Sector: ptr("sector 9")},
	}
	for _, in := range cases {
		_, err := Normalize(in, today, sectors)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%+v: %v", in, err)
	}
}

func TestResolveSector(t *testing.T) {
	sel, err := ResolveSector(nil, sectors)
	require.NoError(t, err)
	assert.Equal(t, models.SectorUnset, sel.Scope)

	sel, err = ResolveSector(ptr(""), sectors)
	require.NoError(t, err)
	assert.Equal(t, models.WholeRegion(), sel)
	assert.NotEqual(t, models.SectorUnset, sel.Scope)

	for _, raw := range []string{"sec-b", "2", " Sector 2 ", "sector2"} {
		sel, err = ResolveSector(ptr(raw), sectors)
		require.NoError(t, err, raw)
		assert.Equal(t, models.SingleSector("sec-b"), sel, raw)
		assert.Equal(t, "sec-b", sel.ID())
	}
}

func TestStateAutoApplyAsymmetry(t *testing.T) {
	s := NewState(today)
	in := s.Input()
	assert.Equal(t, 2025, *in.Year)
	assert.Equal(t, "2025-01-01", in.From)
	assert.Equal(t, "2025-06-01", in.To)
	assert.Nil(t, in.Sector)

	assert.False(t, s.SetFrom("2025-0"))
	assert.False(t, s.SetTo("2025-03-31"))
	assert.True(t, s.Pending())
	assert.Equal(t, "2025-01-01", s.Input().From, "staged edits must not leak into the applied filter")

	assert.False(t, s.SetFrom("2025-02-01"))
	assert.True(t, s.Apply())
	assert.False(t, s.Pending())
	in = s.Input()
	assert.Equal(t, "2025-02-01", in.From)
	assert.Equal(t, "2025-03-31", in.To)
	assert.True(t, in.Override)

	s.Paging.SetPage(3, 100)
	assert.True(t, s.SetYear(2024))
	in = s.Input()
	assert.Equal(t, "2024-01-01", in.From)
	assert.Equal(t, "2024-12-31", in.To)
	assert.False(t, in.Override)
	assert.Equal(t, 1, in.Page)

	assert.True(t, s.SetSector(""))
	f, err := Normalize(s.Input(), today, sectors)
	require.NoError(t, err)
	assert.Equal(t, models.SectorWholeRegion, f.Sector.Scope)
}
