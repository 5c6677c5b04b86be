package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where an API key may come from.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. It takes precedence over Value.
	File string
	// Env names an environment variable consulted when neither File nor Value is set.
	Env string
}

func (s Source) name() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return "secret"
}

// Load resolves the secret. File wins over Value, Value wins over Env. The result is trimmed.
func Load(src Source) (string, error) {
	name := src.name()

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("%s is not configured (set %s)", name, env)
	}

	return "", fmt.Errorf("%s is not configured", name)
}

// Optional is Load for secrets that may be absent, such as a GitHub token. Only a broken
// file is reported as an error.
func Optional(src Source) (string, error) {
	if strings.TrimSpace(src.File) != "" {
		return Load(src)
	}
	secret, err := Load(src)
	if err != nil {
		return "", nil
	}
	return secret, nil
}
