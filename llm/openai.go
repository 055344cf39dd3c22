package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainModel adapts a langchaingo llms.Model to the Model interface.
type LangChainModel struct {
	llm llms.Model
}

var _ Model = (*LangChainModel)(nil)

// NewLangChainModel wraps an existing langchaingo model.
func NewLangChainModel(llm llms.Model) *LangChainModel {
	return &LangChainModel{llm: llm}
}

// NewOpenAIFromEnv builds an OpenAI-backed model from OPENAI_API_KEY,
// OPENAI_MODEL and OPENAI_BASE_URL.
func NewOpenAIFromEnv() (*LangChainModel, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	opts := []openai.Option{}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		opts = append(opts, openai.WithBaseURL(base))
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts = append(opts, openai.WithModel(model))

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &LangChainModel{llm: llm}, nil
}

// Complete generates text for the prompt within the given bounds.
func (m *LangChainModel) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt, callOpts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
