package autohds

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ImportGraphLabels rebuilds the _hds.info file of dataFile from its .hds
// and _sorted.idx text files, for hierarchies produced by an external graph
// clustering. Levels, dense flags, sizes and cluster counts are derived from
// the labels; radii are not stored.
//
// When a <base>_cluster_labels.txt file with "description,label" lines
// exists, the labels are matched to points through the <base>.dsc file and
// saved as class labels, unlisted points getting class 0.
func ImportGraphLabels(dataFile string, cfg Config) (*State, error) {
	applyDefaults(&cfg)
	p := newPaths(dataFile)
	log := cfg.Logger

	idxLines, err := readTextLines(p.sortedIdx())
	if err != nil {
		return nil, err
	}
	hdsLines, err := readTextLines(p.hds())
	if err != nil {
		return nil, err
	}
	numPt := len(idxLines)
	if numPt == 0 || len(hdsLines) != numPt {
		return nil, malformedf("%s has %d rows but %s has %d", p.hds(), len(hdsLines), p.sortedIdx(), numPt)
	}
	levels := len(strings.Fields(hdsLines[0]))
	if levels == 0 || levels > MaxLevels {
		return nil, malformedf("%s: %d levels", p.hds(), levels)
	}

	st := &State{NumPt: numPt, ExternalGraph: true, ClassColumn: -1}
	st.Labels = make([][]int, numPt)
	st.IsDense = make([][]bool, numPt)
	st.SortedIdx = make([]int, numPt)
	for i := 0; i < numPt; i++ {
		fields := strings.Fields(hdsLines[i])
		if len(fields) != levels {
			return nil, malformedf("%s line %d: expected %d labels, found %d", p.hds(), i+1, levels, len(fields))
		}
		st.Labels[i] = make([]int, levels)
		st.IsDense[i] = make([]bool, levels)
		for l, f := range fields {
			lab, err := strconv.Atoi(f)
			if err != nil || lab < 0 {
				return nil, malformedf("%s line %d column %d: bad label %q", p.hds(), i+1, l, f)
			}
			st.Labels[i][l] = lab
			st.IsDense[i][l] = lab != 0
		}
		idx, err := strconv.Atoi(strings.TrimSpace(idxLines[i]))
		if err != nil || idx < 1 || idx > numPt {
			return nil, malformedf("%s line %d: bad point index %q", p.sortedIdx(), i+1, idxLines[i])
		}
		st.SortedIdx[i] = idx - 1
	}

	st.DenseSizes = make([]int, levels)
	st.NumClusters = make([]int, levels)
	for l := 0; l < levels; l++ {
		seen := make(map[int]struct{})
		for i := 0; i < numPt; i++ {
			if lab := st.Labels[i][l]; lab != 0 {
				st.DenseSizes[l]++
				seen[lab] = struct{}{}
			}
		}
		st.NumClusters[l] = len(seen)
	}

	if _, err := os.Stat(p.graphLabels()); err == nil {
		if err := readGraphClassLabels(p, st); err != nil {
			return nil, err
		}
		if err := SaveClassInfo(p.classInfo(), st, cfg.BufferSize); err != nil {
			return nil, err
		}
	}

	log.Info("regenerated HDS data from text files", zap.String("file", p.hdsInfo()),
		zap.Int("points", numPt), zap.Int("levels", levels))
	if err := SaveHDSInfo(p.hdsInfo(), st, cfg.BufferSize); err != nil {
		return nil, err
	}
	return st, nil
}

func readGraphClassLabels(p paths, st *State) error {
	descs, err := ReadDescriptions(p.dsc(), st.NumPt)
	if err != nil {
		return errors.WithHint(err, "cluster label files name points by their .dsc description")
	}
	byName := make(map[string]int, len(descs))
	for i, d := range descs {
		byName[d.Text] = i
	}
	lines, err := readTextLines(p.graphLabels())
	if err != nil {
		return err
	}
	st.ClassLabels = make([]int, st.NumPt)
	for n, line := range lines {
		name, value, ok := strings.Cut(line, ",")
		if !ok {
			return malformedf("%s line %d: want \"description,label\"", p.graphLabels(), n+1)
		}
		pt, found := byName[strings.TrimSpace(name)]
		if !found {
			return malformedf("%s line %d: unknown point %q", p.graphLabels(), n+1, name)
		}
		label, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return malformedf("%s line %d: bad label %q", p.graphLabels(), n+1, value)
		}
		st.ClassLabels[pt] = label
	}
	st.ClassColumn = 0
	st.Classes = uniqueSorted(st.ClassLabels)
	st.Descriptions = descs
	return nil
}

// readTextLines returns the non-blank lines of path.
func readTextLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		if line := sc.Text(); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, errors.Wrapf(sc.Err(), "read %s", path)
}
