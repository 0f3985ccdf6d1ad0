// Package config defines the sky configuration file and its validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/asmotherman/sky/internal/cidr"
)

// ErrInvalid indicates a configuration that must not reach the provider.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration for one environment.
type Config struct {
	// Project and Environment are used verbatim (lower-cased) in every
	// generated name and tag.
	Project     string      `mapstructure:"project"`
	Environment string      `mapstructure:"environment"`
	Region      string      `mapstructure:"region"`
	Credentials Credentials `mapstructure:"credentials"`
	Network     Network     `mapstructure:"network"`
	Compute     Compute     `mapstructure:"compute"`
}

// Credentials holds an optional static AWS key pair. When empty the
// default credential chain is used.
type Credentials struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Network configures the VPC topology.
type Network struct {
	CIDR string `mapstructure:"cidr"`
	// Zones is "all" or a comma-separated list of zone names.
	Zones          string `mapstructure:"zones"`
	SubnetsPerZone int    `mapstructure:"subnets_per_zone"`
	Public         bool   `mapstructure:"public"`
	Balanced       bool   `mapstructure:"balanced"`
	ByteAligned    bool   `mapstructure:"byte_aligned"`
}

// Compute configures the instances layered on top of the network.
type Compute struct {
	Enabled      bool   `mapstructure:"enabled"`
	ImageID      string `mapstructure:"image_id"`
	OS           string `mapstructure:"os"`
	InstanceType string `mapstructure:"instance_type"`
	UserData     string `mapstructure:"user_data"`
}

// ZoneNames returns the explicit zone selection, or nil when every
// available zone should be used.
func (n Network) ZoneNames() []string {
	if strings.EqualFold(strings.TrimSpace(n.Zones), "all") {
		return nil
	}

	var names []string
	for _, name := range strings.Split(n.Zones, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Validate checks the configuration before any provider call is made.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("%w: project is required", ErrInvalid)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: environment is required", ErrInvalid)
	}
	if c.Region == "" {
		return fmt.Errorf("%w: region is required", ErrInvalid)
	}

	block, err := cidr.Parse(c.Network.CIDR)
	if err != nil {
		return fmt.Errorf("%w: network.cidr: %w", ErrInvalid, err)
	}
	if err := cidr.ValidateVPC(block); err != nil {
		return fmt.Errorf("%w: network.cidr: %w", ErrInvalid, err)
	}

	if c.Network.SubnetsPerZone < 1 {
		return fmt.Errorf("%w: network.subnets_per_zone must be at least 1", ErrInvalid)
	}

	if c.Compute.Enabled && c.Compute.ImageID == "" && c.Compute.OS == "" {
		return fmt.Errorf("%w: compute requires image_id or os", ErrInvalid)
	}

	return nil
}
