package model

import (
	"fmt"
	"strings"
)

// Engine identifies an AI answer engine being monitored
type Engine string

const (
	EngineChatGPT    Engine = "ChatGPT"
	EngineGemini     Engine = "Gemini"
	EngineClaude     Engine = "Claude"
	EnginePerplexity Engine = "Perplexity"
)

// Engines is the fixed roster, in display order.
// Adding an engine means widening this list and every switch over Engine.
var Engines = []Engine{EngineChatGPT, EngineGemini, EngineClaude, EnginePerplexity}

func (e Engine) String() string {
	return string(e)
}

// Valid reports whether e is part of the roster
func (e Engine) Valid() bool {
	for _, known := range Engines {
		if e == known {
			return true
		}
	}
	return false
}

// ParseEngine resolves a case-insensitive engine name
func ParseEngine(name string) (Engine, error) {
	for _, known := range Engines {
		if strings.EqualFold(strings.TrimSpace(name), string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown engine: %q (supported: ChatGPT, Gemini, Claude, Perplexity)", name)
}
