package feed

import (
	"fmt"
	"math/rand/v2"
)

// Walk is a bounded random walk: add a uniform integer delta in [Min, Max]
// and clamp the result to Floor. There is no ceiling.
type Walk struct {
	Min   int
	Max   int
	Floor int
}

// Symmetric builds a walk with delta range [-spread, spread].
func Symmetric(spread, floor int) Walk {
	return Walk{Min: -spread, Max: spread, Floor: floor}
}

// Drift builds a walk biased upward, delta range [-spread, 2*spread].
func Drift(spread, floor int) Walk {
	return Walk{Min: -spread, Max: 2 * spread, Floor: floor}
}

func (w Walk) Step(r *rand.Rand, v int) int {
	next := v + w.Min + r.IntN(w.Max-w.Min+1)
	return w.Clamp(next)
}

func (w Walk) Clamp(v int) int {
	return max(w.Floor, v)
}

func (w Walk) validate() error {
	if w.Max < w.Min {
		return fmt.Errorf("walk range [%d, %d] is empty", w.Min, w.Max)
	}
	return nil
}
