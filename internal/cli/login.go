package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go.driftwork.dev/drift/internal/app"
)

const pageFlushTimeout = 10 * time.Second

// ErrLoginTimeout is returned when no callback arrives in time.
var ErrLoginTimeout = errors.New("timed out waiting for login")

func NewLoginCmd(deps *Dependencies) *cobra.Command {
	var noBrowser bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser and print the token",
		Long:  "Start a one-shot callback server on localhost, open the Drift login page and wait for the identity provider to redirect back with a token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := make(chan string, 1)
			svc, err := deps.NewService(func(name string, data any) {
				if name != app.EventAuthToken {
					return
				}
				if token, ok := data.(string); ok {
					select {
					case tokens <- token:
					default:
					}
				}
			})
			if err != nil {
				return err
			}
			defer svc.Shutdown()

			attempt, err := svc.StartAuthAttempt()
			if err != nil {
				return err
			}
			callbackURL := attempt.CallbackURL

			stderr := cmd.ErrOrStderr()
			loginURL, err := svc.LoginURL(callbackURL)
			switch {
			case err != nil:
				fmt.Fprintf(stderr, "No auth_url configured; point the identity provider at:\n  %s\n", callbackURL)
			case noBrowser:
				fmt.Fprintf(stderr, "Open this URL to sign in:\n  %s\n", loginURL)
			default:
				if err := deps.OpenBrowser(loginURL); err != nil {
					fmt.Fprintf(stderr, "Could not open a browser (%v). Open this URL to sign in:\n  %s\n", err, loginURL)
				} else {
					fmt.Fprintf(stderr, "Opened %s\n", loginURL)
				}
			}
			fmt.Fprintf(stderr, "Waiting for callback on %s ...\n", callbackURL)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			timer := time.NewTimer(timeout)
			defer timer.Stop()

			select {
			case token := <-tokens:
				// The token is delivered before the browser gets its page.
				// Exiting now could cut that response off.
				select {
				case <-attempt.Done():
				case <-time.After(pageFlushTimeout):
					slog.Warn("auth listener still serving", "attempt", attempt.ID)
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			case <-timer.C:
				return ErrLoginTimeout
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
	cmd.Flags().DurationVar(&timeout, "timeout", deps.Config.CallbackTimeout(), "How long to wait for the callback")

	return cmd
}

func NewTokenCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the stored token",
		Long:  "Print the last redeemed token. Only useful with persist_token enabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := deps.NewService(nil)
			if err != nil {
				return err
			}
			defer svc.Shutdown()

			token := svc.GetAuthToken()
			if token == nil {
				return errors.New("no token stored")
			}
			fmt.Fprintln(cmd.OutOrStdout(), *token)
			return nil
		},
	}
}
