package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	snapOutput  string
	snapTimeout time.Duration
)

var snapCmd = &cobra.Command{
	Use:     "snap <camera-id>",
	Short:   "Capture a snapshot and write it to a file",
	Example: `  camsnap snap garage --output garage.jpg`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), snapTimeout)
		defer cancel()

		data, err := a.manager.CaptureImage(ctx, id)
		if err != nil {
			return err
		}

		output := snapOutput
		if output == "" {
			output = id + ".jpg"
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}

		a.logger.Info("Snapshot saved", zap.String("camera", id), zap.String("file", output), zap.Int("bytes", len(data)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapCmd)
	snapCmd.Flags().StringVarP(&snapOutput, "output", "o", "", "Output filename (default <camera-id>.jpg)")
	snapCmd.Flags().DurationVar(&snapTimeout, "timeout", 30*time.Second, "Overall deadline for the capture")
}
