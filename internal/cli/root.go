// Package cli implements driftctl, a headless front end to the desktop core.
package cli

import (
	"github.com/spf13/cobra"

	"go.driftwork.dev/drift/config"
	"go.driftwork.dev/drift/internal/app"
)

// Dependencies are shared by all commands.
type Dependencies struct {
	Config  *config.Config
	Version string

	// NewService builds a Service whose events go to emit.
	NewService func(emit app.EmitFunc) (*app.Service, error)

	// OpenBrowser opens a URL in the user's browser.
	OpenBrowser func(url string) error
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "driftctl",
		Short:         "Drift desktop core from the command line",
		Long:          "Sign in to Drift, capture screenshots and record brief sessions without the desktop window.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = deps.Version

	rootCmd.AddCommand(NewLoginCmd(deps))
	rootCmd.AddCommand(NewTokenCmd(deps))
	rootCmd.AddCommand(NewCaptureCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))

	return rootCmd
}
