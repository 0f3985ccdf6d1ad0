package commands

import (
	"github.com/spf13/cobra"

	"github.com/asmotherman/sky/cmd/sky/handlers"
)

// Network returns the command for provisioning the network topology.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: sky.yaml)
//
// Environment variables:
//
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: static credentials,
//	used when the config file carries none (the default chain applies
//	otherwise).
func Network() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "network",
		Short: "Provision the VPC, gateway, route tables and subnets",
		Long: `Provision the network topology.

This command creates a VPC with an internet gateway, tags the default
route table, network ACL and DHCP options set, and partitions the VPC
CIDR into equally sized subnets across the configured availability
zones. Re-running it adds subnets alongside the existing ones.

Examples:
  # Provision using sky.yaml in the current directory
  sky network

  # Provision using a specific config file
  sky network -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Network(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sky.yaml", "Path to configuration file")

	return cmd
}
