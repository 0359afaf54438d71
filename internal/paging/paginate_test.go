package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-console/internal/apperr"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginateEmpty(t *testing.T) {
	p, err := Paginate([]string{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{}, p.Items)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 0, p.TotalCount)
}

func TestPaginateSlices(t *testing.T) {
	all := seq(25)

	p, err := Paginate(all, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, seq(10), p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.TotalCount)

	p, err = Paginate(all, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, p.Items)
}

func TestPaginateOutOfRangeIsEmptyNotClamped(t *testing.T) {
	for _, page := range []int{0, -1, 4, 100} {
		p, err := Paginate(seq(25), page, 10)
		require.NoError(t, err)
		assert.Empty(t, p.Items, "page %d", page)
		assert.Equal(t, page, p.Page)
	}
}

func TestPaginateRejectsNonPositivePerPage(t *testing.T) {
	_, err := Paginate(seq(3), 1, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTotalPagesProperty(t *testing.T) {
	for n := 0; n <= 120; n++ {
		for _, perPage := range []int{1, 3, 10, 20, 50, 100} {
			p, err := Paginate(seq(n), 1, perPage)
			require.NoError(t, err)
			want := (n + perPage - 1) / perPage
			if want < 1 {
				want = 1
			}
			assert.Equal(t, want, p.TotalPages, "n=%d perPage=%d", n, perPage)
		}
	}
}

func TestPaginateItemsCannotGrowIntoSource(t *testing.T) {
	all := seq(5)
	p, err := Paginate(all, 1, 2)
	require.NoError(t, err)
	_ = append(p.Items, 99)
	assert.Equal(t, 3, all[2])
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 3))
	assert.Equal(t, 3, Clamp(7, 3))
	assert.Equal(t, 2, Clamp(2, 3))
	assert.Equal(t, 1, Clamp(5, 0))
}

func TestStatePerPageResetsPage(t *testing.T) {
	s := NewState()
	s.SetPage(4, 100)
	assert.Equal(t, 4, s.Page)

	require.NoError(t, s.SetPerPage(50))
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 50, s.PerPage)

	err := s.SetPerPage(25)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 50, s.PerPage)

	s.SetPage(9, 60)
	assert.Equal(t, 2, s.Page)
}
