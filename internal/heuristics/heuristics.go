// Package heuristics computes deterministic surface metrics from message text.
package heuristics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/straja-ai/rcc/internal/states"
)

// punctuationWeight is added to intensity for every run of ! or ?.
const punctuationWeight = 0.1

var rePunctuationRun = regexp.MustCompile(`[!?]+`)

// Metrics are the raw measurements taken from one message.
type Metrics struct {
	Chars      int     `json:"chars"`
	Words      int     `json:"words"`
	Intensity  float64 `json:"intensity"`
	Repetition float64 `json:"repetition"`
	Noise      float64 `json:"noise"`
}

// IsSpace reports whether r is whitespace for tokenizing and normalization:
// unicode.IsSpace plus the byte order mark, minus NEL (U+0085).
func IsSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// UnitLen is the width of r in UTF-16 code units. Invalid bytes decode to
// U+FFFD and count as one.
func UnitLen(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// Length returns the length of text in UTF-16 code units, the unit all
// character counts and the input cap are expressed in.
func Length(text string) int {
	n := 0
	for _, r := range text {
		n += UnitLen(r)
	}
	return n
}

// Fields splits text on runs of whitespace and drops empty tokens.
func Fields(text string) []string {
	return strings.FieldsFunc(text, IsSpace)
}

// Compute measures text. Empty text yields zero metrics.
func Compute(text string) Metrics {
	if text == "" {
		return Metrics{}
	}

	words := Fields(text)

	var chars, upper, noisy int
	for _, r := range text {
		w := UnitLen(r)
		chars += w
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', IsSpace(r):
		default:
			// a surrogate pair is two noise units
			noisy += w
		}
	}

	denom := float64(max(chars, 1))
	punctRuns := len(rePunctuationRun.FindAllStringIndex(text, -1))
	intensity := min(1, float64(upper)/denom+float64(punctRuns)*punctuationWeight)

	var repetition float64
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[strings.ToLower(w)] = struct{}{}
		}
		repetition = 1 - float64(len(unique))/float64(len(words))
	}

	noise := min(1, float64(noisy)/denom)

	return Metrics{
		Chars:      chars,
		Words:      len(words),
		Intensity:  states.Clamp(intensity),
		Repetition: states.Clamp(repetition),
		Noise:      states.Clamp(noise),
	}
}

// ResolveState classifies metrics by their intensity.
func ResolveState(m Metrics) states.State {
	return states.ResolveByScore(m.Intensity)
}
