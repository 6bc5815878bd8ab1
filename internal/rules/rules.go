// Package rules holds per-state text transforms applied during regulation.
//
// No transforms are registered by default, so Apply returns its input
// unchanged for every state.
package rules

import "github.com/straja-ai/rcc/internal/states"

// Rule rewrites message text.
type Rule func(text string) string

// Engine dispatches text to the rule registered for a state.
type Engine struct {
	rules map[states.State]Rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithRule registers rule for state. Registrations for states outside the
// closed set are ignored.
func WithRule(state states.State, rule Rule) Option {
	return func(e *Engine) {
		if rule == nil || !state.Valid() {
			return
		}
		e.rules[state] = rule
	}
}

// New builds an engine from opts.
func New(opts ...Option) *Engine {
	e := &Engine{rules: make(map[states.State]Rule, len(opts))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Default returns the engine used by Apply.
func Default() *Engine {
	return defaultEngine
}

// Apply transforms text with the rule registered for state, or returns it
// untouched when there is none.
func (e *Engine) Apply(text string, state states.State) string {
	if e == nil {
		return text
	}
	rule, ok := e.rules[state]
	if !ok {
		return text
	}
	return rule(text)
}

// Apply runs the default engine.
func Apply(text string, state states.State) string {
	return defaultEngine.Apply(text, state)
}
