// Package analyzer normalizes raw input and classifies it into a state.
//
// Analyze never fails: input that normalizes to nothing is reported as
// NEUTRAL with reason INVALID_INPUT instead of an error.
package analyzer

import (
	"strings"

	"github.com/straja-ai/rcc/internal/heuristics"
	"github.com/straja-ai/rcc/internal/states"
)

// MaxInputLength caps the number of UTF-16 code units kept after
// normalization.
const MaxInputLength = 10000

// Reason explains how a state was reached.
type Reason string

const (
	ReasonLowIntensity  Reason = "LOW_INTENSITY"
	ReasonBaseline      Reason = "BASELINE"
	ReasonHighIntensity Reason = "HIGH_INTENSITY"
	ReasonInvalidInput  Reason = "INVALID_INPUT"
)

// Result is the outcome of analyzing one message.
type Result struct {
	State  states.State `json:"state"`
	Score  float64      `json:"score"`
	Reason Reason       `json:"reason"`
}

// Normalize trims input, collapses whitespace runs into single spaces and
// truncates to MaxInputLength code units. Anything that is not a string
// normalizes to "".
func Normalize(input any) string {
	s, ok := input.(string)
	if !ok || s == "" {
		return ""
	}
	return truncate(strings.Join(heuristics.Fields(s), " "), MaxInputLength)
}

// truncate keeps at most n UTF-16 code units. A character that would be
// split by the cut is dropped whole, and a space left dangling is trimmed so
// normalizing twice is a no-op.
func truncate(s string, n int) string {
	units := 0
	for i, r := range s {
		units += heuristics.UnitLen(r)
		if units > n {
			return strings.TrimRight(s[:i], " ")
		}
	}
	return s
}

// Analyze normalizes input and classifies it. Metrics are only computed
// when normalization leaves something to measure.
func Analyze(input any) Result {
	normalized := Normalize(input)
	if normalized == "" {
		return Result{State: states.Neutral, Score: 0, Reason: ReasonInvalidInput}
	}

	metrics := heuristics.Compute(normalized)
	score := metrics.Intensity
	state := states.ResolveByScore(score)

	return Result{State: state, Score: score, Reason: ReasonFor(state)}
}

// ReasonFor returns the reason reported for a resolved state.
func ReasonFor(state states.State) Reason {
	switch state {
	case states.Calm:
		return ReasonLowIntensity
	case states.Tense:
		return ReasonHighIntensity
	default:
		return ReasonBaseline
	}
}
