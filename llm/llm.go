// Package llm defines the minimal language-model surface the chatbot
// needs: a prompt in, text out, bounded by temperature, token budget and
// timeout. Every call site must treat failure as recoverable.
package llm

import (
	"context"
	"time"
)

// Options bound a single completion call.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Model is a black-box text generator.
type Model interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}
