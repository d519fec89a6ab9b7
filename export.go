package autohds

import (
	"bufio"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
)

// writeTextFile creates path and hands a buffered writer to fill.
func writeTextFile(path string, fill func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	w := bufio.NewWriterSize(f, 1<<16)
	if err := fill(w); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// writeLabelRows writes one line per point in order, each label followed
// by a space.
func writeLabelRows(path string, labels [][]int, order []int) error {
	return writeTextFile(path, func(w *bufio.Writer) error {
		var buf []byte
		for _, p := range order {
			buf = buf[:0]
			for _, l := range labels[p] {
				buf = strconv.AppendInt(buf, int64(l), 10)
				buf = append(buf, ' ')
			}
			buf = append(buf, '\n')
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveHDSTree writes the raw label matrix to the .hds file and the same
// rows in dictionary order to the _sorted.hds file.
func SaveHDSTree(dataFile string, st *State) error {
	p := newPaths(dataFile)
	if err := writeLabelRows(p.hds(), st.Labels, IndexArray(st.NumPt)); err != nil {
		return err
	}
	return writeLabelRows(p.sortedHDS(), st.Labels, st.SortedIdx)
}

// SaveHMATree writes the HMA label rows in the HDS dictionary order to the
// _sorted.hma file and the matching 1-based point indices to _sorted.idx.
func SaveHMATree(dataFile string, st *State, h *Hierarchy) error {
	p := newPaths(dataFile)
	if err := writeLabelRows(p.sortedHMA(), h.Labels, st.SortedIdx); err != nil {
		return err
	}
	return writeSortedIdx(p.sortedIdx(), st.SortedIdx)
}

// writeSortedIdx writes the 1-based point indices of order, one per line.
func writeSortedIdx(path string, order []int) error {
	return writeTextFile(path, func(w *bufio.Writer) error {
		for _, idx := range order {
			if _, err := w.WriteString(strconv.Itoa(idx+1) + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveClusterCSV writes every HMA cluster member to the _lab.csv file,
// clusters in rank order, as "clusterId,stability,ptIdx[,description]"
// with 1-based ids and indices. Descriptions are quoted as CSV requires.
func SaveClusterCSV(dataFile string, st *State, h *Hierarchy) error {
	withDesc := len(st.Descriptions) == st.NumPt && st.NumPt > 0
	return writeTextFile(newPaths(dataFile).labCSV(), func(w *bufio.Writer) error {
		header := "clusterId, stability, ptIdx"
		if withDesc {
			header += ",ptDescription"
		}
		if _, err := w.WriteString(header + "\n"); err != nil {
			return err
		}
		cw := csv.NewWriter(w)
		row := make([]string, 3, 4)
		for _, c := range h.RankOrder {
			cl := h.Clusters[c]
			row[0] = strconv.Itoa(c + 1)
			row[1] = strconv.FormatFloat(cl.Stability, 'g', -1, 64)
			for _, p := range cl.Members {
				row = append(row[:2], strconv.Itoa(p+1))
				if withDesc {
					row = append(row, st.Descriptions[p].String())
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
