// Package llm adapts Gemini and Claude to the domain generation interfaces.
package llm

import "errors"

var (
	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrMaxTurns is returned when a tool conversation does not settle in time.
	ErrMaxTurns = errors.New("tool conversation exceeded max turns")
)
