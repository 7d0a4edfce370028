// Package trace summarizes iteration error traces ‖x_true - x_k‖ produced by
// the deblurring solvers.
//
// A trace is semiconvergent when it falls to a minimum strictly before its
// last entry and rises afterwards, the typical behavior of gradient descent
// on an ill-posed problem with noisy data.
package trace

import (
	"math"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Stats holds error trace statistics.
//
//nolint:revive
type Stats struct {
	Length int
	First  float64
	Last   float64
	Mean   float64
	Min    float64
	MinPos int // first index of the minimum, -1 if empty
	Max    float64
	MaxPos int

	// Falls and Rises count consecutive pairs with t[k] < t[k-1] and
	// t[k] > t[k-1].
	Falls int
	Rises int

	// LastImprovement is the last index k > 0 with t[k] < t[k-1], -1 if
	// there is none. This is the iterate a best-seen truncation keeps.
	LastImprovement int

	// Degradation is Last / Min; Degradation_dB is the same in decibels.
	Degradation    float64
	Degradation_dB float64
}

// Semiconvergent reports whether the trace falls to a minimum that lies
// strictly inside it and ends above that minimum.
func (s Stats) Semiconvergent() bool {
	return s.MinPos > 0 && s.MinPos < s.Length-1 && s.Last > s.Min
}

// NonIncreasing reports whether the trace never rises.
func (s Stats) NonIncreasing() bool {
	return s.Rises == 0
}

func emptyStats() Stats {
	return Stats{
		MinPos:          -1,
		MaxPos:          -1,
		LastImprovement: -1,
		Degradation_dB:  math.Inf(-1),
	}
}

// Calculate computes all trace statistics in a single pass.
func Calculate(trace []float64) Stats {
	t := NewTracker()
	for _, e := range trace {
		t.Add(e)
	}

	return t.Result()
}

// MinPos returns the first index of the smallest entry, -1 for an empty trace.
func MinPos(trace []float64) int {
	if len(trace) == 0 {
		return -1
	}

	pos := 0
	for i, e := range trace[1:] {
		if e < trace[pos] {
			pos = i + 1
		}
	}

	return pos
}

// Tracker accumulates trace statistics one entry at a time. Its result is
// bit-for-bit identical to Calculate over the same entries.
type Tracker struct {
	n       int
	sum     float64
	first   float64
	prev    float64
	minVal  float64
	minPos  int
	maxVal  float64
	maxPos  int
	falls   int
	rises   int
	lastImp int
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{lastImp: -1}
}

// Add appends an entry and reports whether it is strictly below the
// previous one. The first entry has no predecessor and never improves.
func (t *Tracker) Add(e float64) (improved bool) {
	if t.n == 0 {
		t.first = e
		t.minVal, t.maxVal = e, e
	} else {
		switch {
		case e < t.prev:
			t.falls++
			t.lastImp = t.n
			improved = true
		case e > t.prev:
			t.rises++
		}

		if e < t.minVal {
			t.minVal, t.minPos = e, t.n
		}

		if e > t.maxVal {
			t.maxVal, t.maxPos = e, t.n
		}
	}

	t.sum += e
	t.prev = e
	t.n++

	return improved
}

// Len returns the number of entries added.
func (t *Tracker) Len() int { return t.n }

// Previous returns the most recent entry and false if none was added.
func (t *Tracker) Previous() (float64, bool) {
	return t.prev, t.n > 0
}

// Result computes the statistics of the entries added so far.
func (t *Tracker) Result() Stats {
	if t.n == 0 {
		return emptyStats()
	}

	degradation := math.NaN()
	if t.minVal != 0 {
		degradation = t.prev / t.minVal
	} else if t.prev == 0 {
		degradation = 1
	}

	degradationdB := math.NaN()
	if !math.IsNaN(degradation) {
		degradationdB = core.LinearToDB(degradation)
	}

	return Stats{
		Length:          t.n,
		First:           t.first,
		Last:            t.prev,
		Mean:            t.sum / float64(t.n),
		Min:             t.minVal,
		MinPos:          t.minPos,
		Max:             t.maxVal,
		MaxPos:          t.maxPos,
		Falls:           t.falls,
		Rises:           t.rises,
		LastImprovement: t.lastImp,
		Degradation:     degradation,
		Degradation_dB:  degradationdB,
	}
}

// Reset clears the tracker for reuse.
func (t *Tracker) Reset() {
	*t = Tracker{lastImp: -1}
}
