// Package config loads the reconciler's configuration file. The file is
// decoded with yaml.v3, which accepts both plain YAML and (since JSON is a
// subset of YAML's flow style) the historical JSON config format unchanged.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/resource"
)

// ProviderConfig describes which DNS provider adapter to use and how to
// authenticate to it.
type ProviderConfig struct {
	Name        string `yaml:"name"`
	Region      string `yaml:"region,omitempty"`
	AssumeRole  bool   `yaml:"assume_role"`
	RoleARN     string `yaml:"role_arn,omitempty"`
	SessionName string `yaml:"session_name,omitempty"`
}

// StateFileConfig describes which StateStore backend to use and where it
// keeps the state object.
type StateFileConfig struct {
	Backend     string            `yaml:"backend"`
	Filename    string            `yaml:"filename,omitempty"`
	Bucket      string            `yaml:"bucket,omitempty"`
	Key         string            `yaml:"key,omitempty"`
	Region      string            `yaml:"region,omitempty"`
	RoleARN     string            `yaml:"role_arn,omitempty"`
	SessionName string            `yaml:"session_name,omitempty"`
	Tags        map[string]string `yaml:"tags,omitempty"`
}

// ZoneConfig is one entry of the zone table.
type ZoneConfig struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
	ID     string `yaml:"id"`
}

// Config is the top-level configuration document.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	StateFile StateFileConfig `yaml:"statefile"`
	Zones     []ZoneConfig    `yaml:"zones"`
}

// Load reads and decodes path, then validates the fields required by the
// chosen statefile backend.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &macrotine.IOError{Op: "reading config " + path, Err: err}
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &macrotine.IOError{Op: "decoding config " + path, Err: err}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.StateFile.Backend {
	case "local":
		if c.StateFile.Filename == "" {
			return &macrotine.ConfigError{Field: "statefile.filename", Reason: "required for backend=local"}
		}
	case "s3":
		if c.StateFile.Bucket == "" || c.StateFile.Key == "" {
			return &macrotine.ConfigError{Field: "statefile.bucket/key", Reason: "required for backend=s3"}
		}
	default:
		return &macrotine.ConfigError{Field: "statefile.backend", Reason: "must be \"local\" or \"s3\""}
	}
	if c.Provider.Name == "" {
		return &macrotine.ConfigError{Field: "provider.name", Reason: "required"}
	}
	if len(c.Zones) == 0 {
		return &macrotine.ConfigError{Field: "zones", Reason: "at least one zone is required"}
	}
	return nil
}

// ZoneTable converts the config's zone list into a resource.ZoneTable,
// preserving declaration order for longest-suffix tie-breaking.
func (c *Config) ZoneTable() resource.ZoneTable {
	zt := make(resource.ZoneTable, 0, len(c.Zones))
	for _, z := range c.Zones {
		zt = append(zt, resource.Zone{Name: z.Name, Domain: z.Domain, ID: z.ID})
	}
	return zt
}
