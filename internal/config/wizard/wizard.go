// Package wizard implements the interactive configuration flow behind
// `sky init`.
package wizard

import (
	"context"
	"fmt"
)

// Result holds all the answers from the interactive wizard.
type Result struct {
	// Identity
	Project     string
	Environment string
	Region      string

	// Network
	CIDR           string
	Zones          string
	SubnetsPerZone int
	Public         bool

	// Sizing policy
	Balanced    bool
	ByteAligned bool

	// Compute (optional)
	ComputeEnabled bool
	OS             string
	InstanceType   string
}

// Run walks through the wizard groups in order. The context is used
// for cancellation support (e.g., Ctrl+C).
func Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	if err := runIdentityGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	if err := runNetworkGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	if err := runPolicyGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("sizing policy: %w", err)
	}

	if err := runComputeGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}

	return result, nil
}
