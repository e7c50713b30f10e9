package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func NewCaptureCmd(deps *Dependencies) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Take one screenshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := deps.NewService(nil)
			if err != nil {
				return err
			}
			defer svc.Shutdown()

			encoded, err := svc.CaptureScreenshot()
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405"))
			}
			if err := writePNG(output, encoded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG path")

	return cmd
}

func writePNG(path, encoded string) error {
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}
