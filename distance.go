package autohds

import (
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Measure selects how vectors are preprocessed before squared Euclidean
// distances are taken between them.
type Measure int

const (
	// Euclidean uses squared Euclidean distance on the raw vectors.
	Euclidean Measure = iota
	// Pearson centres each row and divides it by its sample variance, after
	// which scaled squared Euclidean distance gives the Pearson distance.
	Pearson
	// Cosine scales each row to unit length so that squared Euclidean distance
	// is proportional to 1 - cosine similarity.
	Cosine
)

func (m Measure) String() string {
	switch m {
	case Euclidean:
		return "Euclidean"
	case Pearson:
		return "Pearson"
	case Cosine:
		return "Cosine"
	}
	return "Measure(?)"
}

// ParseMeasure maps "Euclidean", "Pearson" or "Cosine" (any case) to a
// Measure.
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "euclidean":
		return Euclidean, nil
	case "pearson":
		return Pearson, nil
	case "cosine":
		return Cosine, nil
	}
	return 0, invalidConfigf("unknown distance measure %q (want Euclidean, Pearson or Cosine)", s)
}

// Normalize preprocesses the n rows of flat row-major data in place for
// measure m. Rows whose variance (Pearson) or norm (Cosine) is zero cannot be
// normalised; they are left unchanged and reported through log.
func Normalize(data []float64, n, dims int, m Measure, log *zap.Logger) {
	if m == Euclidean || dims == 0 {
		return
	}
	for i := 0; i < n; i++ {
		row := data[i*dims : (i+1)*dims]
		switch m {
		case Pearson:
			mean := stat.Mean(row, nil)
			floats.AddConst(-mean, row)
			variance := stat.Variance(row, nil)
			if variance == 0 || dims < 2 {
				log.Warn("row has zero variance, skipping normalisation", zap.Int("row", i))
				continue
			}
			floats.Scale(1/variance, row)
		case Cosine:
			norm := floats.Norm(row, 2)
			if norm == 0 {
				log.Warn("row has zero norm, skipping normalisation", zap.Int("row", i))
				continue
			}
			floats.Scale(1/norm, row)
		}
	}
}

// pearsonScale is the divisor applied to squared distances between
// standardised rows; numCol counts every column of the input file.
func pearsonScale(numCol int) float64 {
	if numCol < 2 {
		return 1
	}
	return float64(2 * (numCol - 1))
}

// DistanceRow fills row with the squared Euclidean distances from point i to
// every point of data, dividing by scale when scale != 1.
func DistanceRow(data []float64, n, dims, i int, scale float64, row []float64) {
	a := data[i*dims : (i+1)*dims]
	for j := 0; j < n; j++ {
		d := euclideanSumOfSquares(a, data[j*dims:(j+1)*dims])
		if scale != 1 {
			d /= scale
		}
		row[j] = d
	}
}

func euclideanSumOfSquares(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
