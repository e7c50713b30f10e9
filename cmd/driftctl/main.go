// Command driftctl drives the Drift desktop core without a window.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/browser"

	"go.driftwork.dev/drift/config"
	"go.driftwork.dev/drift/internal/app"
	"go.driftwork.dev/drift/internal/cli"
	"go.driftwork.dev/drift/internal/logging"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel)

	// The browser's own output would otherwise interleave with the token.
	browser.Stdout = os.Stderr

	deps := &cli.Dependencies{
		Config:  cfg,
		Version: version,
		NewService: func(emit app.EmitFunc) (*app.Service, error) {
			return app.NewHeadless(version, cfg, app.Deps{
				Tokens: app.OpenTokenStore(cfg),
				Emit:   emit,
			})
		},
		OpenBrowser: browser.OpenURL,
	}

	return cli.NewRootCmd(deps).Execute()
}
