// Package rcc is the public entry point to the regulation pipeline.
//
//	res, err := rcc.Run(rcc.Input{Text: "Hello world", Meta: map[string]any{"userId": "123"}})
//	// res.Analysis.State == rcc.StateCalm
//	// res.Regulation.Action == rcc.ActionPassthrough
//	// res.Routing.Channel == rcc.ChannelText
//
// Input may be a string, an Input, an *Input or a decoded JSON object with a
// "text" key. Input of the wrong shape is rejected with an INVALID_INPUT
// *Error; text content itself never causes an error.
package rcc

import (
	"fmt"
	"time"

	"github.com/straja-ai/rcc/internal/analyzer"
	"github.com/straja-ai/rcc/internal/heuristics"
	"github.com/straja-ai/rcc/internal/regulator"
	"github.com/straja-ai/rcc/internal/router"
	"github.com/straja-ai/rcc/internal/states"
)

// MaxInputLength is the number of UTF-16 code units analyzed per message.
const MaxInputLength = analyzer.MaxInputLength

// Version of the pipeline contract.
const Version = "1.0.0"

type (
	State   = states.State
	Reason  = analyzer.Reason
	Action  = regulator.Action
	Channel = router.Channel

	// AnalysisResult is the classification of one message.
	AnalysisResult = analyzer.Result
	// RoutingResult carries the output channel.
	RoutingResult = router.Result
)

const (
	StateCalm    = states.Calm
	StateNeutral = states.Neutral
	StateTense   = states.Tense

	ReasonLowIntensity  = analyzer.ReasonLowIntensity
	ReasonBaseline      = analyzer.ReasonBaseline
	ReasonHighIntensity = analyzer.ReasonHighIntensity
	ReasonInvalidInput  = analyzer.ReasonInvalidInput

	ActionPassthrough = regulator.ActionPassthrough
	ActionSoften      = regulator.ActionSoften
	ActionSummarize   = regulator.ActionSummarize
	ActionPause       = regulator.ActionPause

	ChannelText     = router.ChannelText
	ChannelCooldown = router.ChannelCooldown
)

// Input is the structured form of a request.
type Input struct {
	Text string         `json:"text"`
	Meta map[string]any `json:"meta,omitempty"`
}

// RegulationResult is returned by Regulate.
type RegulationResult struct {
	Analysis AnalysisResult `json:"analysis"`
	Action   Action         `json:"action"`
	Message  string         `json:"message"`
	Meta     map[string]any `json:"meta"`
}

// Regulation is the regulation part of a full pipeline result.
type Regulation struct {
	Action  Action `json:"action"`
	Message string `json:"message"`
}

// Result is returned by Run.
type Result struct {
	Analysis   AnalysisResult `json:"analysis"`
	Regulation Regulation     `json:"regulation"`
	Routing    RoutingResult  `json:"routing"`
	Meta       map[string]any `json:"meta"`
}

// Observer is notified after every successful Run.
type Observer interface {
	ObserveRun(res Result, elapsed time.Duration)
}

// Observers fans every run out to each non-nil member in order.
type Observers []Observer

func (obs Observers) ObserveRun(res Result, elapsed time.Duration) {
	for _, o := range obs {
		if o != nil {
			o.ObserveRun(res, elapsed)
		}
	}
}

// Client runs the pipeline with optional behaviour switches. The zero value
// is not usable; build one with New.
type Client struct {
	strictLength bool
	observer     Observer

	analyze  func(any) analyzer.Result
	regulate func(*analyzer.Result, string) regulator.Result
	route    func(regulator.Result) router.Result
}

// Option configures a Client.
type Option func(*Client)

// WithStrictLength rejects text longer than MaxInputLength with an
// INPUT_TOO_LONG error instead of truncating it.
func WithStrictLength() Option {
	return func(c *Client) { c.strictLength = true }
}

// WithObserver registers o to receive every completed Run.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New builds a Client.
func New(opts ...Option) *Client {
	c := &Client{
		analyze:  analyzer.Analyze,
		regulate: regulator.Regulate,
		route:    router.Route,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClient = New()

// Analyze classifies input with the default client.
func Analyze(input any) (AnalysisResult, error) { return defaultClient.Analyze(input) }

// Regulate analyzes and regulates input with the default client.
func Regulate(input any) (RegulationResult, error) { return defaultClient.Regulate(input) }

// Run executes analyze, regulate and route with the default client.
func Run(input any) (Result, error) { return defaultClient.Run(input) }

// Analyze classifies input.
func (c *Client) Analyze(input any) (res AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = AnalysisResult{}, recovered(CodeAnalysisFailed, "Analysis failed", r)
		}
	}()

	text, _, verr := c.validate(input)
	if verr != nil {
		return AnalysisResult{}, verr
	}
	return c.analyze(text), nil
}

// Regulate analyzes input and derives the regulation action.
func (c *Client) Regulate(input any) (res RegulationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = RegulationResult{}, recovered(CodeRegulationFailed, "Regulation failed", r)
		}
	}()

	text, meta, verr := c.validate(input)
	if verr != nil {
		return RegulationResult{}, verr
	}

	analysis := c.analyze(text)
	regulation := c.regulate(&analysis, text)

	return RegulationResult{
		Analysis: analysis,
		Action:   regulation.Action,
		Message:  regulation.Message,
		Meta:     meta,
	}, nil
}

// Run executes the full pipeline on input.
func (c *Client) Run(input any) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, recovered(CodeRoutingFailed, "Pipeline failed", r)
		}
	}()

	text, meta, verr := c.validate(input)
	if verr != nil {
		return Result{}, verr
	}

	start := time.Now()
	analysis := c.analyze(text)
	regulation := c.regulate(&analysis, text)
	routing := c.route(regulation)

	res = Result{
		Analysis:   analysis,
		Regulation: Regulation{Action: regulation.Action, Message: regulation.Message},
		Routing:    routing,
		Meta:       meta,
	}
	if c.observer != nil {
		c.observer.ObserveRun(res, time.Since(start))
	}
	return res, nil
}

// validate extracts text and meta from the accepted input shapes.
func (c *Client) validate(input any) (string, map[string]any, error) {
	text, meta, err := extract(input)
	if err != nil {
		return "", nil, err
	}
	if c.strictLength {
		if n := heuristics.Length(text); n > MaxInputLength {
			return "", nil, NewInputTooLongError(n, MaxInputLength)
		}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return text, meta, nil
}

func extract(input any) (string, map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return "", nil, NewInvalidInputError("Input text is required", nil)
	case string:
		return v, nil, nil
	case Input:
		return v.Text, v.Meta, nil
	case *Input:
		if v == nil {
			return "", nil, NewInvalidInputError("Input text is required", nil)
		}
		return v.Text, v.Meta, nil
	case map[string]any:
		raw, ok := v["text"]
		if !ok || raw == nil {
			return "", nil, NewInvalidInputError("Input text is required", nil)
		}
		text, ok := raw.(string)
		if !ok {
			return "", nil, NewInvalidInputError("Input text must be a string", map[string]any{
				"receivedType": fmt.Sprintf("%T", raw),
			})
		}
		meta, _ := v["meta"].(map[string]any)
		return text, meta, nil
	default:
		return "", nil, NewInvalidInputError("Input text must be a string", map[string]any{
			"receivedType": fmt.Sprintf("%T", input),
		})
	}
}
