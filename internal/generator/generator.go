// Package generator turns prompts and instructions into site code through an
// llm.Provider. It applies the call timeout and nothing else: no retries, no
// post-processing.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"site-generator-backend/internal/llm"
	"site-generator-backend/internal/models"
)

const (
	defaultTimeout   = 90 * time.Second
	generationTokens = 8192
	profileTokens    = 1024
)

type Generator struct {
	provider llm.Provider
	timeout  time.Duration
}

func New(provider llm.Provider, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{provider: provider, timeout: timeout}
}

// Generate produces the first version of a site from the visitor's prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, profile models.BusinessProfile) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: generateSystemPrompt},
		{Role: llm.RoleUser, Content: buildGeneratePrompt(prompt, profile)},
	}
	return g.complete(ctx, messages)
}

// Modify asks the provider to apply instruction to code and return the full
// updated document.
func (g *Generator) Modify(ctx context.Context, code, instruction string, profile models.BusinessProfile) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: modifySystemPrompt},
		{Role: llm.RoleUser, Content: buildModifyPrompt(code, instruction, profile)},
	}
	return g.complete(ctx, messages)
}

// ExtractProfile pulls structured business attributes out of a free-text
// prompt.
func (g *Generator) ExtractProfile(ctx context.Context, prompt string) (models.BusinessProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: profileSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   profileTokens,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return models.BusinessProfile{}, err
	}

	var profile models.BusinessProfile
	if err := json.Unmarshal([]byte(stripJSONFence(resp.Content)), &profile); err != nil {
		return models.BusinessProfile{}, &llm.ProviderError{
			Provider: g.provider.Name(),
			Err:      fmt.Errorf("malformed profile json: %w", err),
		}
	}
	return profile, nil
}

func (g *Generator) complete(ctx context.Context, messages []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   generationTokens,
		Temperature: 0.7,
	})
	if err != nil {
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			return "", err
		}
		return "", &llm.ProviderError{
			Provider: g.provider.Name(),
			Timeout:  errors.Is(err, context.DeadlineExceeded),
			Err:      err,
		}
	}

	if strings.TrimSpace(resp.Content) == "" {
		return "", &llm.ProviderError{Provider: g.provider.Name(), Err: errors.New("empty completion")}
	}
	return resp.Content, nil
}

func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
