package factory

import (
	"fmt"

	"ai-mediagen-be/pkg/provider"
	"ai-mediagen-be/pkg/provider/openai"
	"ai-mediagen-be/pkg/provider/runway"
	"ai-mediagen-be/pkg/provider/stability"
)

// NewJobClient returns the client for a provider name.
func NewJobClient(name, apiKey string) (provider.JobClient, error) {
	switch name {
	case "openai":
		return openai.NewClient(apiKey), nil
	case "stability":
		return stability.NewClient(apiKey), nil
	case "runway":
		return runway.NewClient(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", name)
	}
}
