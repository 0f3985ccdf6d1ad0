// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"

	"github.com/asmotherman/sky/internal/cidr"
	"github.com/asmotherman/sky/internal/config"
	"github.com/asmotherman/sky/internal/planner"
	"github.com/asmotherman/sky/internal/platform/aws"
	"github.com/asmotherman/sky/internal/provisioning/network"
)

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// loadConfig loads and validates the configuration file.
	loadConfig = config.LoadFile

	// newPlatformClient creates the provider client both provisioners
	// share.
	newPlatformClient = func(ctx context.Context, cfg *config.Config) (aws.NetworkProvider, aws.ComputeProvider, error) {
		client, err := aws.NewClient(ctx, cfg.Region, cfg.Credentials.AccessKeyID, cfg.Credentials.SecretAccessKey)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}
)

// Network provisions the network topology described by the config file.
func Network(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	provider, _, err := newPlatformClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create platform client: %w", err)
	}

	result, err := provisionNetwork(ctx, provider, cfg)
	if err != nil {
		return err
	}

	printNetworkSummary(cfg, result)
	return nil
}

// provisionNetwork runs the network provisioner with options derived
// from the configuration.
func provisionNetwork(ctx context.Context, provider aws.NetworkProvider, cfg *config.Config) (*network.Result, error) {
	block, err := cidr.Parse(cfg.Network.CIDR)
	if err != nil {
		return nil, fmt.Errorf("network.cidr: %w", err)
	}

	return network.NewProvisioner(provider).Provision(ctx, network.Options{
		Project:        cfg.Project,
		Environment:    cfg.Environment,
		CIDR:           block,
		ZoneNames:      cfg.Network.ZoneNames(),
		SubnetsPerZone: cfg.Network.SubnetsPerZone,
		Public:         cfg.Network.Public,
		Policy: planner.Policy{
			Balanced:    cfg.Network.Balanced,
			ByteAligned: cfg.Network.ByteAligned,
		},
	})
}
