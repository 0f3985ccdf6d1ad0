package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills the fields the file may omit.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.Network.CIDR == "" {
		c.Network.CIDR = "10.0.0.0/16"
	}
	if c.Network.Zones == "" {
		c.Network.Zones = "all"
	}
	if c.Network.SubnetsPerZone == 0 {
		c.Network.SubnetsPerZone = 1
	}
	if c.Compute.InstanceType == "" {
		c.Compute.InstanceType = "t2.micro"
	}
	if c.Compute.OS == "" && c.Compute.ImageID == "" {
		c.Compute.OS = "ubuntu"
	}
}
