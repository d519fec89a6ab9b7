package autohds

import "math"

// Stability computes the stability of a cluster living from baseLevel to
// peakLevel of a hierarchy with the given dense sizes:
//
//	(ln(peakFrac) - ln(baseFrac)) / ln(0.99)
//
// peakFrac is the fraction of points dense at peakLevel and baseFrac the
// fraction dense one level before baseLevel. For baseLevel 0 that level is
// virtual, holding denseSizes[0]/(1-rshave) points. Dividing by ln(0.99)
// expresses the result in steps of a 1% shave regardless of rshave, so it
// is positive and grows with the number of levels the cluster survives.
func Stability(denseSizes []int, numPt int, rshave float64, baseLevel, peakLevel int) float64 {
	n := float64(numPt)
	var baseFrac float64
	if baseLevel > 0 {
		baseFrac = float64(denseSizes[baseLevel-1]) / n
	} else {
		baseFrac = float64(denseSizes[0]) / n / (1 - rshave)
	}
	peakFrac := float64(denseSizes[peakLevel]) / n
	return (math.Log(peakFrac) - math.Log(baseFrac)) / math.Log(0.99)
}
