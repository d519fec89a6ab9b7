package autohds

import "math"

// MaxLevels caps the number of density levels in one hierarchy.
const MaxLevels = 1000

// DenseSizeList returns the number of dense points at each level, largest
// first. Level 0 keeps round((1-fshave)*numPt) points and each later level
// keeps (1-rshave) of the previous target, rounded; sizes that do not shrink
// are skipped and the list ends once a level holds a single point.
//
// Rounding is done in float32 so level sizes agree with existing .hds
// files.
func DenseSizeList(fshave, rshave float64, numPt int) []int {
	biggest := roundFloat32(float32(1-float32(fshave)) * float32(numPt))
	sizes := []int{biggest}
	if biggest <= 1 || rshave <= 0 || rshave >= 1 {
		return sizes
	}
	remain := 1 - rshave
	for iter := 1; len(sizes) < MaxLevels; iter++ {
		n := roundFloat32(float32(math.Pow(remain, float64(iter)) * float64(biggest)))
		if n < 1 {
			break
		}
		if n < sizes[len(sizes)-1] {
			sizes = append(sizes, n)
		}
		if n <= 1 {
			break
		}
	}
	return sizes
}

// SingleCutSize is the dense set size used when only one density level is
// computed.
func SingleCutSize(fshave float64, numPt int) int {
	return roundFloat32(float32(1-float32(fshave)) * float32(numPt))
}

// roundFloat32 rounds half up.
func roundFloat32(x float32) int {
	return int(math.Floor(float64(x) + 0.5))
}
