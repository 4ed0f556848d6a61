package cmd

import (
	"github.com/spf13/cobra"

	"github.com/scil-audit/scil-go/cmd/export"
	"github.com/scil-audit/scil-go/cmd/ingest"
	"github.com/scil-audit/scil-go/cmd/serve"
	"github.com/scil-audit/scil-go/cmd/user"
	"github.com/scil-audit/scil-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scil",
		Short: "SCIL payroll incompatibility audit CLI",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(settings),
		ingest.Command(settings),
		export.Command(settings),
		user.Command(settings),
	)

	return rootCmd
}
