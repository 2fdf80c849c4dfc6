package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagerBounds(t *testing.T) {
	p := Pager{Page: 0, PageSize: 10, Total: 25}
	from, to := p.Bounds()
	assert.Equal(t, 0, from)
	assert.Equal(t, 10, to)

	p.Page = 2
	from, to = p.Bounds()
	assert.Equal(t, 20, from)
	assert.Equal(t, 25, to, "last page is short")

	p.Page = 5
	from, to = p.Bounds()
	assert.Equal(t, 25, from)
	assert.Equal(t, 25, to, "out-of-range page clamps to empty")
}

func TestPagerNavigation(t *testing.T) {
	first := Pager{Page: 0, PageSize: 10, Total: 25}
	assert.False(t, first.HasPrev())
	assert.True(t, first.HasNext())

	middle := Pager{Page: 1, PageSize: 10, Total: 25}
	assert.True(t, middle.HasPrev())
	assert.True(t, middle.HasNext())

	last := Pager{Page: 2, PageSize: 10, Total: 25}
	assert.True(t, last.HasPrev())
	assert.False(t, last.HasNext())
}

func TestPagerSinglePage(t *testing.T) {
	p := Pager{Page: 0, PageSize: 10, Total: 7}
	assert.False(t, p.HasPrev())
	assert.False(t, p.HasNext())

	from, to := p.Bounds()
	assert.Equal(t, 0, from)
	assert.Equal(t, 7, to)
}
