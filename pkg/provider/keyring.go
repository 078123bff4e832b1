package provider

import (
	"fmt"
	"os"
	"strings"
)

// KeyResolver consolidates the per-provider API key lookup: system-configured
// key first, then the caller-supplied key, then the provider's conventional
// environment variable.
type KeyResolver struct {
	systemKeys map[string]string
	envVars    map[string]string
}

func NewKeyResolver(systemKeys map[string]string) *KeyResolver {
	return &KeyResolver{
		systemKeys: systemKeys,
		envVars: map[string]string{
			"openai":    "OPENAI_API_KEY",
			"stability": "STABILITY_API_KEY",
			"runway":    "RUNWAY_API_KEY",
		},
	}
}

func (r *KeyResolver) Resolve(providerName, userKey string) (string, error) {
	if key := r.systemKeys[providerName]; key != "" {
		return key, nil
	}
	if userKey != "" {
		return userKey, nil
	}

	envVar := r.envVars[providerName]
	if envVar == "" {
		envVar = strings.ToUpper(providerName) + "_API_KEY"
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	return "", fmt.Errorf("no API key configured for provider %s", providerName)
}
