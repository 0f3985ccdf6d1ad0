package commands

import (
	"github.com/spf13/cobra"

	"github.com/asmotherman/sky/cmd/sky/handlers"
)

// Up returns the command for provisioning the network and its instances.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: sky.yaml)
func Up() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision the network and launch instances",
		Long: `Provision the full environment.

This command provisions the network topology like 'sky network', then
creates a security group and launches one EC2 instance into each new
subnet. The compute section of the configuration must be enabled.

Examples:
  # Bring up the environment described by sky.yaml
  sky up

  # Bring up a specific environment
  sky up -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sky.yaml", "Path to configuration file")

	return cmd
}
