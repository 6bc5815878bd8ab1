package heuristics

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/straja-ai/rcc/internal/states"
)

func TestComputeEmpty(t *testing.T) {
	if diff := cmp.Diff(Metrics{}, Compute("")); diff != "" {
		t.Fatalf("empty text metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)
	cases := []struct {
		name string
		text string
		want Metrics
	}{
		{
			name: "plain lowercase",
			text: "hello world",
			want: Metrics{Chars: 11, Words: 2},
		},
		{
			name: "all caps",
			text: "AAAA",
			want: Metrics{Chars: 4, Words: 1, Intensity: 1},
		},
		{
			name: "punctuation runs count once each",
			text: "what!!! why??",
			want: Metrics{Chars: 13, Words: 2, Intensity: 0.2, Noise: 5.0 / 13},
		},
		{
			name: "mixed run counts once",
			text: "ok?!?!",
			want: Metrics{Chars: 6, Words: 1, Intensity: 0.1, Noise: 4.0 / 6},
		},
		{
			name: "case-insensitive repetition",
			text: "Go go GO",
			want: Metrics{Chars: 8, Words: 3, Intensity: 3.0 / 8, Repetition: 1 - 1.0/3},
		},
		{
			name: "digits are not noise",
			text: "room 101",
			want: Metrics{Chars: 8, Words: 2},
		},
		{
			name: "non-ascii letters count as noise",
			text: "café",
			want: Metrics{Chars: 4, Words: 1, Noise: 0.25},
		},
		{
			name: "astral characters are two units",
			text: "ABC\U0001F600",
			want: Metrics{Chars: 5, Words: 1, Intensity: 0.6, Noise: 0.4},
		},
		{
			name: "next line is not whitespace",
			text: "a\u0085b",
			want: Metrics{Chars: 3, Words: 1, Noise: 1.0 / 3},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Compute(tc.text), approx); diff != "" {
				t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeIntensityCapped(t *testing.T) {
	m := Compute("STOP! STOP! STOP! STOP!")
	assert.Equal(t, 1.0, m.Intensity)
}

func TestComputeRangesOnAdversarialInput(t *testing.T) {
	inputs := []string{
		"😀😃😄😁😆",
		"你好世界",
		"\xed\xa0\x80test",
		"à́̂",
		strings.Repeat("!?", 5000),
		strings.Repeat("A", 10000),
		"\x00\x01\x02",
		string([]byte{0xff, 0xfe, 0xfd}),
	}
	for _, in := range inputs {
		m := Compute(in)
		for name, v := range map[string]float64{"intensity": m.Intensity, "repetition": m.Repetition, "noise": m.Noise} {
			assert.GreaterOrEqual(t, v, 0.0, "%s for %q", name, in)
			assert.LessOrEqual(t, v, 1.0, "%s for %q", name, in)
		}
		assert.GreaterOrEqual(t, m.Chars, 0)
		assert.GreaterOrEqual(t, m.Words, 0)
	}
}

func TestComputeDeterministic(t *testing.T) {
	text := "Hello HELLO hello!!! are you there???"
	assert.Equal(t, Compute(text), Compute(text))
}

func TestFieldsSplitsUnicodeWhitespace(t *testing.T) {
	got := Fields("a\u00a0b\tc\n\u3000d\uFEFFe")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	assert.Empty(t, Fields(" \t\n "))
}

func TestFieldsKeepsNextLine(t *testing.T) {
	assert.False(t, IsSpace('\u0085'))
	assert.Equal(t, []string{"a\u0085b", "c"}, Fields("a\u0085b c"))
}

func TestLength(t *testing.T) {
	cases := map[string]int{
		"":                 0,
		"abc":              3,
		"caf\u00e9":        4,
		"\u6d4b":           1,
		"\U0001F600":       2,
		"a\U0001F600b":     4,
		"\xff\xfe":         2,
		"\xed\xa0\x80test": 7,
	}
	for in, want := range cases {
		assert.Equal(t, want, Length(in), "%q", in)
	}
}

func TestResolveState(t *testing.T) {
	assert.Equal(t, states.Calm, ResolveState(Metrics{Intensity: 0.1}))
	assert.Equal(t, states.Neutral, ResolveState(Metrics{Intensity: 0.3}))
	assert.Equal(t, states.Tense, ResolveState(Metrics{Intensity: 0.7}))
	assert.Equal(t, ResolveState(Compute("AAAA")), states.ResolveByScore(Compute("AAAA").Intensity))
}
