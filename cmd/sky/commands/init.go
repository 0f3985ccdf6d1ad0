package commands

import (
	"github.com/spf13/cobra"

	"github.com/asmotherman/sky/cmd/sky/handlers"
)

// Init returns the command for interactively creating a configuration.
//
// Flags:
//
//	--output, -o: Path to output file (default "sky.yaml")
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create an environment configuration",
		Long: `Interactively create an environment configuration file.

This command guides you through configuring your AWS environment
step by step. It will ask about:

  - Project identity (name, environment and region)
  - Network topology (CIDR, zones, subnet count, public access)
  - Subnet sizing policy (balanced, byte-aligned)
  - Optional EC2 instances

The generated file feeds 'sky network' and 'sky up'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "sky.yaml", "Output file path")

	return cmd
}
