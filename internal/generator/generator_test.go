package generator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-generator-backend/internal/generator"
	"site-generator-backend/internal/llm"
	"site-generator-backend/internal/llm/llmtest"
	"site-generator-backend/internal/models"
)

type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }

func (slowProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGenerate_IncludesPromptAndProfile(t *testing.T) {
	mock := llmtest.NewMockProvider("<section>Padaria</section>")
	g := generator.New(mock, time.Second)

	code, err := g.Generate(context.Background(), "bakery site", models.BusinessProfile{
		CompanyName:     "Pão Quente",
		Functionalities: []string{"menu", "contact"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<section>Padaria</section>", code)

	call := mock.LastCall()
	require.Len(t, call.Messages, 2)
	assert.Equal(t, llm.RoleSystem, call.Messages[0].Role)
	assert.Contains(t, call.Messages[1].Content, "bakery site")
	assert.Contains(t, call.Messages[1].Content, "Company: Pão Quente")
	assert.Contains(t, call.Messages[1].Content, "Features: menu, contact")
}

func TestModify_SendsCodeAndInstruction(t *testing.T) {
	mock := llmtest.NewMockProvider("<html><body>v2</body></html>")
	g := generator.New(mock, time.Second)

	_, err := g.Modify(context.Background(), "<html><body>v1</body></html>", "make it blue", models.BusinessProfile{})
	require.NoError(t, err)

	prompt := mock.LastCall().Messages[1].Content
	assert.Contains(t, prompt, "<html><body>v1</body></html>")
	assert.Contains(t, prompt, "make it blue")
	assert.NotContains(t, prompt, "Business profile")
}

func TestGenerate_EmptyCompletion(t *testing.T) {
	g := generator.New(llmtest.NewMockProvider("   \n"), time.Second)

	_, err := g.Generate(context.Background(), "x", models.BusinessProfile{})
	require.Error(t, err)

	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Error(), "empty completion")
}

func TestGenerate_PassesRateLimitThrough(t *testing.T) {
	mock := llmtest.NewMockProvider("")
	mock.Err = &llm.ProviderError{Provider: "mock", StatusCode: 429, RateLimited: true, Err: errors.New("quota")}
	g := generator.New(mock, time.Second)

	_, err := g.Generate(context.Background(), "x", models.BusinessProfile{})
	assert.True(t, llm.IsRateLimited(err))
}

func TestGenerate_Timeout(t *testing.T) {
	g := generator.New(slowProvider{}, 20*time.Millisecond)

	_, err := g.Generate(context.Background(), "x", models.BusinessProfile{})
	require.Error(t, err)

	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.Timeout)
	assert.False(t, pe.RateLimited)
}

func TestExtractProfile(t *testing.T) {
	mock := llmtest.NewMockProvider("```json\n{\"company_name\":\"Pão Quente\",\"sector\":\"bakery\",\"functionalities\":[\"menu\"]}\n```")
	g := generator.New(mock, time.Second)

	profile, err := g.ExtractProfile(context.Background(), "bakery called Pão Quente")
	require.NoError(t, err)
	assert.Equal(t, "Pão Quente", profile.CompanyName)
	assert.Equal(t, "bakery", profile.Sector)
	assert.Equal(t, []string{"menu"}, profile.Functionalities)
	assert.True(t, mock.LastCall().JSONMode)
}

func TestExtractProfile_Malformed(t *testing.T) {
	g := generator.New(llmtest.NewMockProvider("not json"), time.Second)

	_, err := g.ExtractProfile(context.Background(), "x")
	assert.Error(t, err)
}
