package autohds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenseSizeList(t *testing.T) {
	assert.Equal(t, []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, DenseSizeList(0.2, 0.1, 12))
	assert.Equal(t, []int{4, 3, 2, 1}, DenseSizeList(0.5, 0.3, 8))
	// round(0.7*10) = 7, then round(7*0.5^i) = 4, 2, 1 (0.875 rounds up).
	assert.Equal(t, []int{7, 4, 2, 1}, DenseSizeList(0.3, 0.5, 10))
}

func TestDenseSizeList_Invariants(t *testing.T) {
	for _, n := range []int{3, 17, 100, 2500} {
		for _, fshave := range []float64{0.05, 0.2, 0.5, 0.9} {
			for _, rshave := range []float64{0.01, 0.1, 0.3} {
				sizes := DenseSizeList(fshave, rshave, n)
				assert.Equal(t, SingleCutSize(fshave, n), sizes[0])
				assert.LessOrEqual(t, len(sizes), MaxLevels)
				for l := 1; l < len(sizes); l++ {
					assert.Less(t, sizes[l], sizes[l-1], "sizes strictly decrease")
					assert.GreaterOrEqual(t, sizes[l], 1)
				}
			}
		}
	}
}

func TestDenseSizeList_MaxLevels(t *testing.T) {
	sizes := DenseSizeList(0.0001, 0.00001, 5_000_000)
	assert.Len(t, sizes, MaxLevels)
}

func TestDenseSizeList_Degenerate(t *testing.T) {
	assert.Equal(t, []int{1}, DenseSizeList(0.5, 0.1, 2))
	assert.Equal(t, []int{0}, DenseSizeList(0.9, 0.1, 1))
	assert.Equal(t, []int{8}, DenseSizeList(0.2, 0, 10), "no shaving gives one level")
}

func TestSingleCutSize(t *testing.T) {
	assert.Equal(t, 7, SingleCutSize(0.3, 10))
	assert.Equal(t, 5, SingleCutSize(0.5, 9), "4.5 rounds half up")
}
