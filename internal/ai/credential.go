package ai

import (
	"os"
	"strings"
)

// credential resolves the API key on every call; the env var wins only when no static key is set.
type credential struct {
	static string
	envName string
}

func newCredential(apiKey, envName string) credential {
	return credential{
		static:  strings.TrimSpace(apiKey),
		envName: strings.TrimSpace(envName),
	}
}

func (c credential) get() (string, error) {
	if c.static != "" {
		return c.static, nil
	}
	if c.envName != "" {
		if v := strings.TrimSpace(os.Getenv(c.envName)); v != "" {
			return v, nil
		}
	}
	return "", ErrNotConfigured
}
