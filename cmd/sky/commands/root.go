// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the sky CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sky",
		Short: "Provision AWS network environments",
	}

	cmd.AddCommand(Init())
	cmd.AddCommand(Network())
	cmd.AddCommand(Up())
	cmd.AddCommand(Version())

	return cmd
}
