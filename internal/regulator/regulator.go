// Package regulator turns an analysis into a regulation action.
package regulator

import (
	"github.com/straja-ai/rcc/internal/analyzer"
	"github.com/straja-ai/rcc/internal/rules"
	"github.com/straja-ai/rcc/internal/states"
)

// Action is the regulation decision attached to a message.
type Action string

const (
	ActionPassthrough Action = "PASSTHROUGH"
	ActionSoften      Action = "SOFTEN"
	// ActionSummarize and ActionPause are reserved; Regulate never emits them.
	ActionSummarize Action = "SUMMARIZE"
	ActionPause     Action = "PAUSE"
)

// Meta records the analysis a regulation decision was based on.
type Meta struct {
	OriginalState states.State    `json:"originalState"`
	Score         float64         `json:"score"`
	Reason        analyzer.Reason `json:"reason"`
}

// Result is the regulated message. Meta is nil on both fail-safe paths.
type Result struct {
	Action  Action `json:"action"`
	Message string `json:"message"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// HasMeta reports whether the result carries analysis metadata.
func (r Result) HasMeta() bool {
	return r.Meta != nil
}

// Regulate applies the default rule engine.
func Regulate(analysis *analyzer.Result, text string) Result {
	return RegulateWith(rules.Default(), analysis, text)
}

// RegulateWith maps analysis to an action, running text through engine.
// A nil analysis or an unknown state falls back to PASSTHROUGH with the
// original text. analysis is never modified.
func RegulateWith(engine *rules.Engine, analysis *analyzer.Result, text string) Result {
	if analysis == nil {
		return Result{Action: ActionPassthrough, Message: text}
	}

	regulated := engine.Apply(text, analysis.State)
	meta := &Meta{
		OriginalState: analysis.State,
		Score:         analysis.Score,
		Reason:        analysis.Reason,
	}

	switch analysis.State {
	case states.Calm:
		return Result{Action: ActionPassthrough, Message: regulated, Meta: meta}
	case states.Neutral:
		return Result{Action: ActionPassthrough, Message: regulated, Meta: meta}
	case states.Tense:
		return Result{Action: ActionSoften, Message: regulated, Meta: meta}
	default:
		// Unknown state: original text, no meta.
		return Result{Action: ActionPassthrough, Message: text}
	}
}
