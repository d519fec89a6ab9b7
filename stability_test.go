package autohds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStability_BaseLevelZero(t *testing.T) {
	// 12 points, sizes 10, 9, ..., 1 with rshave 0.1. A cluster born at level
	// 0 has a virtual base of 10/12/0.9 dense; peaking at level 9 leaves 1/12.
	sizes := []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	got := Stability(sizes, 12, 0.1, 0, 9)
	want := (math.Log(1.0/12) - math.Log(10.0/12/0.9)) / math.Log(0.99)
	assert.InDelta(t, want, got, 1e-12)
	assert.InDelta(t, 239.5886, got, 1e-3)
}

func TestStability_LaterBaseLevel(t *testing.T) {
	// Born at level 3: the base fraction is the dense fraction at level 2.
	sizes := []int{100, 90, 81, 73, 66}
	got := Stability(sizes, 200, 0.1, 3, 4)
	want := (math.Log(66.0/200) - math.Log(81.0/200)) / math.Log(0.99)
	assert.InDelta(t, want, got, 1e-12)
}

func TestStability_GrowsWithLifetime(t *testing.T) {
	sizes := DenseSizeList(0.2, 0.05, 1000)
	prev := 0.0
	for peak := 0; peak < len(sizes); peak++ {
		s := Stability(sizes, 1000, 0.05, 0, peak)
		assert.Greater(t, s, prev, "peak %d", peak)
		prev = s
	}
}

func TestStability_IndependentOfPointCount(t *testing.T) {
	sizes := []int{50, 40, 30}
	assert.InDelta(t, Stability(sizes, 100, 0.2, 1, 2), Stability(sizes, 7000, 0.2, 1, 2), 1e-9)
}
