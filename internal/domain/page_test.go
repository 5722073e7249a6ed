package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/placebook/internal/domain"
)

func intPtr(i int) *int { return &i }

func TestNewPaginationParams_Defaults(t *testing.T) {
	p := domain.NewPaginationParams(nil, nil)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, domain.DefaultPageSize, p.Limit)
	assert.Equal(t, 0, p.Offset())
}

func TestNewPaginationParams_InvalidFallsBack(t *testing.T) {
	p := domain.NewPaginationParams(intPtr(0), intPtr(-3))

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, domain.DefaultPageSize, p.Limit)
}

func TestNewPaginationParams_LimitCapped(t *testing.T) {
	p := domain.NewPaginationParams(intPtr(2), intPtr(500))

	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 100, p.Offset())
}

func TestPaginationParams_Offset(t *testing.T) {
	p := domain.NewPaginationParams(intPtr(3), nil)

	// skip = (page - 1) * pageSize
	assert.Equal(t, 8, p.Offset())
}

func TestPaginationParams_Offset_HugePageDoesNotOverflow(t *testing.T) {
	for _, page := range []int{math.MaxInt, math.MaxInt/domain.DefaultPageSize + 2} {
		p := domain.NewPaginationParams(intPtr(page), nil)

		assert.Equal(t, page, p.Page, "requested page is kept for the notice")
		assert.Equal(t, math.MaxInt, p.Offset())
	}

	last := domain.NewPaginationParams(intPtr(math.MaxInt/domain.DefaultPageSize+1), nil)
	assert.Equal(t, math.MaxInt/domain.DefaultPageSize*domain.DefaultPageSize, last.Offset())
}

func TestPaginationParams_TotalPages(t *testing.T) {
	p := domain.NewPaginationParams(nil, nil)

	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(4))
	assert.Equal(t, 2, p.TotalPages(5))
	assert.Equal(t, 2, p.TotalPages(8))
}

func TestRangeCorrection_Notice(t *testing.T) {
	c := domain.RangeCorrection{Requested: 99, Target: 2}

	assert.Equal(t, "You asked for page 99 but that does not exist. You have been sent to page 2", c.Notice())
}
