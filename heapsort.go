package autohds

// The functions in this file order an index permutation idx by values[idx[i]]
// without moving values. They keep a binary min-heap over the prefix
// idx[0:m] and move extracted minima to the back, so after extracting k
// elements the suffix idx[len-k:] holds the k smallest values with idx[len-1]
// the smallest. The prefix stays a valid heap, which is what lets a partial
// sort be resumed later from the same arrays.

// IndexArray returns the identity permutation 0..n-1.
func IndexArray(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// PartIdxSort heapifies idx over values and extracts the k smallest into the
// suffix of idx. k >= len(idx)-1 fully sorts idx. k <= 0 only heapifies.
func PartIdxSort(values []float64, idx []int, k int) {
	n := len(idx)
	if n == 0 {
		return
	}
	for r := n/2 - 1; r >= 0; r-- {
		siftDownIdx(values, idx, r, n)
	}
	extractMinima(values, idx, n, heapStop(n, k))
}

// ContinuePartIdxSort resumes a partial sort that already holds lastK sorted
// elements and extends it to newK. It is a no-op when newK <= lastK.
func ContinuePartIdxSort(values []float64, idx []int, lastK, newK int) {
	if newK <= lastK {
		return
	}
	n := len(idx)
	m := heapStop(n, lastK)
	extractMinima(values, idx, m, heapStop(n, newK))
}

// ExtendPartIdxSort resumes a partial sort holding lastK sorted elements and
// keeps extracting while the heap minimum is <= radius. It returns the new
// length of the sorted suffix. When the largest sorted value already exceeds
// radius nothing is extracted and lastK is returned.
func ExtendPartIdxSort(values []float64, idx []int, lastK int, radius float64) int {
	n := len(idx)
	if lastK >= n {
		return n
	}
	m := n - max(lastK, 0)
	if lastK > 0 && values[idx[m]] > radius {
		return lastK
	}
	for m > 0 && values[idx[0]] <= radius {
		idx[0], idx[m-1] = idx[m-1], idx[0]
		m--
		siftDownIdx(values, idx, 0, m)
	}
	return n - m
}

// IdxSort fully sorts idx so that values[idx[0]] is the largest and
// values[idx[len-1]] the smallest.
func IdxSort(values []float64, idx []int) {
	PartIdxSort(values, idx, len(idx))
}

// TopK returns the k entries of a partially sorted idx in ascending value
// order, smallest first.
func TopK(idx []int, k int) []int {
	n := len(idx)
	k = min(k, n)
	out := make([]int, k)
	for i := range out {
		out[i] = idx[n-1-i]
	}
	return out
}

// heapStop is the heap size left after k extractions from n elements.
func heapStop(n, k int) int {
	if k <= 0 {
		return n
	}
	if k >= n {
		return 1
	}
	return n - k
}

// extractMinima pops the heap root into the back of the heap prefix until the
// prefix has shrunk from m to stop elements.
func extractMinima(values []float64, idx []int, m, stop int) {
	for m > stop {
		idx[0], idx[m-1] = idx[m-1], idx[0]
		m--
		siftDownIdx(values, idx, 0, m)
	}
}

func siftDownIdx(values []float64, idx []int, root, m int) {
	top := idx[root]
	for {
		child := 2*root + 1
		if child >= m {
			break
		}
		if child+1 < m && values[idx[child+1]] < values[idx[child]] {
			child++
		}
		if values[top] <= values[idx[child]] {
			break
		}
		idx[root] = idx[child]
		root = child
	}
	idx[root] = top
}
