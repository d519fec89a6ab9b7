package autohds

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomValues(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64() * 100
	}
	return v
}

func sortedCopy(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	return out
}

// suffixValues returns values of the last k entries of idx, smallest first.
func suffixValues(values []float64, idx []int, k int) []float64 {
	out := make([]float64, 0, k)
	for _, p := range TopK(idx, k) {
		out = append(out, values[p])
	}
	return out
}

func TestIndexArray(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, IndexArray(4))
	assert.Empty(t, IndexArray(0))
}

func TestPartIdxSort_SmallestK(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 3, 10, 57, 200} {
		values := randomValues(rng, n)
		want := sortedCopy(values)
		for _, k := range []int{1, n / 2, n - 1, n} {
			if k <= 0 {
				continue
			}
			idx := IndexArray(n)
			PartIdxSort(values, idx, k)
			require.Equal(t, want[:k], suffixValues(values, idx, k), "n=%d k=%d", n, k)
			assert.Equal(t, want[0], values[idx[n-1]], "idx[n-1] must be the minimum")
			assert.ElementsMatch(t, IndexArray(n), idx, "idx must stay a permutation")
		}
	}
}

func TestPartIdxSort_Duplicates(t *testing.T) {
	values := []float64{3, 1, 3, 1, 2, 2, 1}
	idx := IndexArray(len(values))
	PartIdxSort(values, idx, 4)
	assert.Equal(t, []float64{1, 1, 1, 2}, suffixValues(values, idx, 4))
}

func TestContinuePartIdxSort_MatchesFromScratch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 120
	values := randomValues(rng, n)
	for _, ks := range [][2]int{{1, 5}, {5, 5}, {10, 60}, {3, n}, {0, 12}} {
		k1, k2 := ks[0], ks[1]

		scratch := IndexArray(n)
		PartIdxSort(values, scratch, k2)

		resumed := IndexArray(n)
		PartIdxSort(values, resumed, k1)
		ContinuePartIdxSort(values, resumed, k1, k2)

		assert.Equal(t, suffixValues(values, scratch, k2), suffixValues(values, resumed, k2), "k1=%d k2=%d", k1, k2)
	}
}

func TestContinuePartIdxSort_NoopWhenNotLarger(t *testing.T) {
	values := []float64{5, 4, 3, 2, 1}
	idx := IndexArray(5)
	PartIdxSort(values, idx, 2)
	before := append([]int(nil), idx...)
	ContinuePartIdxSort(values, idx, 2, 2)
	ContinuePartIdxSort(values, idx, 2, 1)
	assert.Equal(t, before, idx)
}

func TestExtendPartIdxSort_Threshold(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 300
	values := randomValues(rng, n)
	for _, radius := range []float64{-1, 0.5, 10, 37.5, 99, 1000} {
		idx := IndexArray(n)
		PartIdxSort(values, idx, 3)
		got := ExtendPartIdxSort(values, idx, 3, radius)

		sorted := sortedCopy(values)
		within := sort.Search(n, func(i int) bool { return sorted[i] > radius })
		require.Equal(t, max(within, 3), got, "radius=%v", radius)

		suffix := suffixValues(values, idx, got)
		assert.True(t, sort.Float64sAreSorted(suffix))
		if within >= 3 {
			for _, v := range suffix {
				assert.LessOrEqual(t, v, radius)
			}
		}
		for _, p := range idx[:n-got] {
			assert.Greater(t, values[p], radius)
		}
	}
}

func TestExtendPartIdxSort_AlreadySatisfied(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	idx := IndexArray(6)
	PartIdxSort(values, idx, 3)
	before := append([]int(nil), idx...)
	assert.Equal(t, 3, ExtendPartIdxSort(values, idx, 3, 2.5))
	assert.Equal(t, before, idx)
}

func TestExtendPartIdxSort_Everything(t *testing.T) {
	values := []float64{4, 2, 9, 1}
	idx := IndexArray(4)
	PartIdxSort(values, idx, 1)
	assert.Equal(t, 4, ExtendPartIdxSort(values, idx, 1, 100))
	assert.Equal(t, []float64{1, 2, 4, 9}, suffixValues(values, idx, 4))
}

func TestExtendPartIdxSort_LastElement(t *testing.T) {
	values := []float64{5, 1, 2, 3}
	idx := IndexArray(4)
	PartIdxSort(values, idx, 3)
	assert.Equal(t, 3, ExtendPartIdxSort(values, idx, 3, 4))
	assert.Equal(t, []float64{1, 2, 3}, suffixValues(values, idx, 3))

	assert.Equal(t, 4, ExtendPartIdxSort(values, idx, 3, 5))
	assert.Equal(t, []float64{1, 2, 3, 5}, suffixValues(values, idx, 4))
	assert.Equal(t, 4, ExtendPartIdxSort(values, idx, 4, 0))
}

func TestIdxSort_Descending(t *testing.T) {
	values := []float64{0.5, 3, -2, 8, 3}
	idx := IndexArray(len(values))
	IdxSort(values, idx)
	for i := 1; i < len(idx); i++ {
		assert.GreaterOrEqual(t, values[idx[i-1]], values[idx[i]])
	}
	assert.Equal(t, 3, idx[0])
	assert.Equal(t, 2, idx[4])
}

func TestTopK(t *testing.T) {
	idx := []int{9, 8, 7, 6}
	assert.Equal(t, []int{6, 7}, TopK(idx, 2))
	assert.Equal(t, []int{6, 7, 8, 9}, TopK(idx, 10))
}
