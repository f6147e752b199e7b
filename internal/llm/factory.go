package llm

import "fmt"

// NewProvider builds the provider named by providerType ("openai" or
// "anthropic").
func NewProvider(providerType, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key for provider %q is not set", providerType)
	}
	switch providerType {
	case "openai":
		return NewOpenAIProvider(apiKey, model), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
