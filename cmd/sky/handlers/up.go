package handlers

import (
	"context"
	"fmt"

	"github.com/asmotherman/sky/internal/config"
	"github.com/asmotherman/sky/internal/provisioning/compute"
)

// Up provisions the network topology and launches one instance per new
// subnet.
func Up(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.Compute.Enabled {
		return fmt.Errorf("%w: compute is not enabled; use 'sky network' or enable it", config.ErrInvalid)
	}

	networkProvider, computeProvider, err := newPlatformClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create platform client: %w", err)
	}

	networkResult, err := provisionNetwork(ctx, networkProvider, cfg)
	if err != nil {
		return err
	}
	printNetworkSummary(cfg, networkResult)

	computeResult, err := compute.NewProvisioner(computeProvider).Provision(ctx, compute.Options{
		Project:      cfg.Project,
		Environment:  cfg.Environment,
		NetworkID:    networkResult.NetworkID,
		ImageID:      cfg.Compute.ImageID,
		OS:           cfg.Compute.OS,
		InstanceType: cfg.Compute.InstanceType,
		UserData:     cfg.Compute.UserData,
	}, networkResult.Subnets)
	if err != nil {
		return err
	}

	printComputeSummary(computeResult)
	return nil
}
