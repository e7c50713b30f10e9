package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var briefID string
	var interval time.Duration
	var outDir string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a brief session",
		Long:  "Start a recording session for a brief and capture a screenshot on every interval.\nCtrl+C stops the session and writes the screenshots to --out/<session-id>/.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New("interval must be positive")
			}

			svc, err := deps.NewService(nil)
			if err != nil {
				return err
			}
			defer svc.Shutdown()

			if err := svc.StartRecording(briefID); err != nil {
				return err
			}
			sessionID := svc.GetRecordingStatus().SessionID
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Recording brief %s (session %s), Ctrl+C to stop\n", briefID, sessionID)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			captureOnce := func() {
				if _, err := svc.CaptureScreenshot(); err != nil {
					slog.Warn("capture screenshot", "error", err)
				}
			}
			captureOnce()

		loop:
			for {
				select {
				case <-ticker.C:
					captureOnce()
				case <-ctx.Done():
					break loop
				}
			}

			status := svc.GetRecordingStatus()
			shots, err := svc.StopRecording()
			if err != nil {
				return err
			}

			dir := filepath.Join(outDir, sessionID)
			for i, enc := range shots {
				if err := writePNG(filepath.Join(dir, fmt.Sprintf("%03d.png", i+1)), enc); err != nil {
					return err
				}
			}
			fmt.Fprintf(stdout, "Stopped after %ds, saved %d screenshots to %s\n", status.DurationSeconds, len(shots), dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&briefID, "brief", "b", "", "Brief ID the session belongs to")
	cmd.Flags().DurationVarP(&interval, "interval", "i", deps.Config.RecordInterval(), "Capture interval")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	_ = cmd.MarkFlagRequired("brief")

	return cmd
}
