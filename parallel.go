package autohds

import "sync"

// forEachRow calls fn(i) for every i in [start, end), splitting the range
// into contiguous chunks across numWorkers goroutines. fn must only write
// state owned by row i. Falls back to a plain loop if numWorkers <= 1.
//
// Results are identical to the sequential loop because rows never share
// output slots; callers that write files do so after forEachRow returns, in
// row order.
func forEachRow(start, end, numWorkers int, fn func(i int)) {
	n := end - start
	if n <= 0 {
		return
	}
	if numWorkers <= 1 || n == 1 {
		for i := start; i < end; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		lo := start + w*rowsPerWorker
		hi := min(lo+rowsPerWorker, end)
		if lo >= end {
			break
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}

	wg.Wait()
}

// rowBuf holds one distance row while it is being sorted.
type rowBuf struct {
	values    []float64
	idx       []int
	numSorted int
}

func newRowBufs(rows, n int) []rowBuf {
	bufs := make([]rowBuf, rows)
	for k := range bufs {
		bufs[k] = rowBuf{values: make([]float64, n), idx: make([]int, n)}
	}
	return bufs
}

func (rb *rowBuf) resetIdx() {
	for j := range rb.idx {
		rb.idx[j] = j
	}
}

// batchRows is the number of rows held in memory at once: as many as fit in
// bufferSize bytes, at least one and at most n.
func batchRows(bufferSize, n int) int {
	if n == 0 {
		return 0
	}
	perRow := 16 * n
	return max(1, min(n, bufferSize/perRow))
}
