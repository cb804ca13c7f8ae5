package blueocean

import (
	"fmt"
	"sort"
)

// Direction says which end of a ladder is good.
type Direction string

const (
	LowerIsBetter  Direction = "lower"
	HigherIsBetter Direction = "higher"
)

// Ladder is a step function: Bounds split the value range into
// len(Bounds)+1 buckets and Scores gives each bucket's points.
type Ladder struct {
	Direction Direction `yaml:"direction"`
	Bounds    []float64 `yaml:"bounds"`
	Scores    []int     `yaml:"scores"`
}

// Score returns the points for v. For LowerIsBetter the bucket is the first
// bound v is strictly below; for HigherIsBetter it is the number of bounds v
// has reached.
func (l Ladder) Score(v float64) int {
	return l.Scores[l.bucket(v)]
}

func (l Ladder) bucket(v float64) int {
	if l.Direction == LowerIsBetter {
		for i, b := range l.Bounds {
			if v < b {
				return i
			}
		}
		return len(l.Bounds)
	}
	n := 0
	for _, b := range l.Bounds {
		if v >= b {
			n++
		}
	}
	return n
}

// Validate checks the ladder shape.
func (l Ladder) Validate() error {
	if l.Direction != LowerIsBetter && l.Direction != HigherIsBetter {
		return fmt.Errorf("direction must be %q or %q, got %q", LowerIsBetter, HigherIsBetter, l.Direction)
	}
	if len(l.Scores) != len(l.Bounds)+1 {
		return fmt.Errorf("need %d scores for %d bounds, got %d", len(l.Bounds)+1, len(l.Bounds), len(l.Scores))
	}
	if !sort.Float64sAreSorted(l.Bounds) {
		return fmt.Errorf("bounds must be ascending")
	}
	for _, s := range l.Scores {
		if s < 0 || s > 100 {
			return fmt.Errorf("score %d outside [0,100]", s)
		}
	}
	return nil
}
