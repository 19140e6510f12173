// Package cli provides the command-line interface for stubgen.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute creates and runs the root command.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "stubgen",
		Short: "Generate C# API stubs from compiled .NET assemblies",
	}

	rootCmd.AddCommand(newGenerateCommand())

	return rootCmd.Execute()
}
