// Package generation turns an assembled context into an answer through an
// opaque text-completion backend.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/domain"
)

const (
	contextMarker  = "Context:\n"
	questionMarker = "\n\nQuestion: "
)

// NoAnswer is returned by the static generator when the prompt carries no
// context.
const NoAnswer = "I could not find an answer in the provided documents."

// Prompt builds the instruction sent to the generator. Context segments are
// already numbered by the assembler, so citations refer to those numbers.
func Prompt(question string, c domain.Context) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the numbered sources below. ")
	b.WriteString("Cite the sources you use as [n]. ")
	b.WriteString("If the sources do not contain the answer, say that you do not know.\n\n")
	b.WriteString(contextMarker)
	b.WriteString(c.Text)
	b.WriteString(questionMarker)
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\nAnswer:")
	return b.String()
}

// LLM generates text with a langchaingo model.
type LLM struct {
	model   llms.Model
	timeout time.Duration
	opts    []llms.CallOption
}

// NewLLM wraps model. A positive timeout bounds every call.
func NewLLM(model llms.Model, timeout time.Duration, opts ...llms.CallOption) *LLM {
	return &LLM{model: model, timeout: timeout, opts: opts}
}

// NewOpenAI connects to an OpenAI-compatible completion endpoint.
func NewOpenAI(model, baseURL, token string, timeout time.Duration) (*LLM, error) {
	if token == "" {
		// the client refuses to start without one; local gateways ignore it
		token = "placeholder"
	}
	opts := []openai.Option{openai.WithModel(model), openai.WithToken(token)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return NewLLM(llm, timeout, llms.WithTemperature(0.1)), nil
}

// NewOllama connects to an Ollama server.
func NewOllama(model, serverURL string, timeout time.Duration) (*LLM, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Ollama client: %w", err)
	}
	return NewLLM(llm, timeout, llms.WithTemperature(0.1)), nil
}

// Generate sends prompt as a single user message.
func (g *LLM) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, g.opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return strings.TrimSpace(out), nil
}

// Static answers without a model by quoting the best source of the prompt.
type Static struct{}

// Generate returns the body of the first context segment with its citation.
func (Static) Generate(_ context.Context, prompt string) (string, error) {
	_, rest, ok := strings.Cut(prompt, contextMarker)
	if !ok {
		return NoAnswer, nil
	}
	body, _, _ := strings.Cut(rest, questionMarker)
	first, _, _ := strings.Cut(strings.TrimSpace(body), "\n\n")
	header, text, ok := strings.Cut(first, "\n")
	if !ok || strings.TrimSpace(text) == "" {
		return NoAnswer, nil
	}
	citation, _, _ := strings.Cut(header, " ")
	return strings.TrimSpace(text) + " " + citation, nil
}
