package config

import (
	"fmt"
	"os"
	"strings"
)

// SecretField maps a secret config value to the environment variable naming
// a file that holds it, as mounted by Docker or Kubernetes secrets
type SecretField struct {
	ConfigPath string
	FileEnv    string
	target     func(*Config) *string
}

// SecretFields lists the values that may be read from files
var SecretFields = []SecretField{
	{
		ConfigPath: "ai.api_key",
		FileEnv:    EnvPrefix + "_AI_API_KEY_FILE",
		target:     func(c *Config) *string { return &c.AI.APIKey },
	},
	{
		ConfigPath: "storage.redis.password",
		FileEnv:    EnvPrefix + "_STORAGE_REDIS_PASSWORD_FILE",
		target:     func(c *Config) *string { return &c.Storage.Redis.Password },
	},
}

// loadSecretFiles fills empty secret values from their *_FILE variables.
// Values already set in the config file or environment win.
func loadSecretFiles(cfg *Config) error {
	for _, field := range SecretFields {
		path := os.Getenv(field.FileEnv)
		if path == "" {
			continue
		}
		value := field.target(cfg)
		if *value != "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s from %s: %w", field.ConfigPath, field.FileEnv, err)
		}
		*value = strings.TrimSpace(string(data))
	}
	return nil
}
