// Package router picks the output channel for a regulated message.
package router

import "github.com/straja-ai/rcc/internal/regulator"

// Channel is the output routing target.
type Channel string

const (
	ChannelText     Channel = "TEXT"
	ChannelCooldown Channel = "COOLDOWN"
)

// Result carries the selected channel.
type Result struct {
	Channel Channel `json:"channel"`
}

// Route sends PAUSE to COOLDOWN and everything else to TEXT. Only the
// action is consulted.
func Route(reg regulator.Result) Result {
	if reg.Action == regulator.ActionPause {
		return Result{Channel: ChannelCooldown}
	}
	return Result{Channel: ChannelText}
}
