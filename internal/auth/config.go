package auth

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// ConfigPathEnvVar is the environment variable naming the remote-auth
// table's YAML file.
const ConfigPathEnvVar = "FLETCHER_AUTH_CONFIG_PATH"

// DefaultConfigPath is used when ConfigPathEnvVar is unset.
const DefaultConfigPath = "fletcher-auth.yaml"

// RemoteAuth is one registered service account: its bcrypt key hash and
// the roles it is allowed to exercise.
type RemoteAuth struct {
	Service string        `yaml:"service"`
	Hash    string        `yaml:"hash"`
	Roles   []domain.Role `yaml:"roles"`
}

// Config is the full remote-auth table, keyed implicitly by Service.
type Config struct {
	RemoteAuths []RemoteAuth `yaml:"remote_auths"`
}

// find returns the RemoteAuth registered for service, if any.
func (c *Config) find(service string) (RemoteAuth, bool) {
	for _, ra := range c.RemoteAuths {
		if ra.Service == service {
			return ra, true
		}
	}

	return RemoteAuth{}, false
}

// LoadConfig reads and parses the remote-auth table at path. A missing or
// unreadable file is an error: service authentication cannot degrade
// gracefully to "no credentials".
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted operator configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("auth config not found at %q: %w", path, err)
		}

		return nil, fmt.Errorf("read auth config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse auth config: %w", err)
	}

	for _, ra := range cfg.RemoteAuths {
		for _, role := range ra.Roles {
			if !role.IsValid() {
				return nil, fmt.Errorf("auth config: service %q has invalid role %q", ra.Service, role)
			}
		}
	}

	return cfg, nil
}
