// Package states holds the closed set of conversational states and the
// score thresholds that separate them.
package states

import "math"

// State is the classified emotional intensity of a message.
// The set is closed: Calm, Neutral and Tense are the only valid values.
type State string

const (
	Calm    State = "CALM"
	Neutral State = "NEUTRAL"
	Tense   State = "TENSE"
)

// Score thresholds. CalmMax < TenseMin must hold.
const (
	// CalmMax is the exclusive upper bound of the CALM range.
	CalmMax = 0.3
	// TenseMin is the inclusive lower bound of the TENSE range.
	TenseMin = 0.7
)

var valid = [...]State{Calm, Neutral, Tense}

// All returns the valid states in ascending intensity order.
func All() []State {
	out := make([]State, len(valid))
	copy(out, valid[:])
	return out
}

// IsValid reports whether s is exactly one of the state literals.
func IsValid(s string) bool {
	for _, v := range valid {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Valid reports whether the state belongs to the closed set.
func (s State) Valid() bool {
	return IsValid(string(s))
}

// ResolveByScore maps any score onto a state. Scores are clamped to [0, 1]
// first; NaN is treated as 0.
func ResolveByScore(score float64) State {
	clamped := Clamp(score)
	if clamped < CalmMax {
		return Calm
	}
	if clamped >= TenseMin {
		return Tense
	}
	return Neutral
}

// Clamp restricts v to [0, 1].
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
