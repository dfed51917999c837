// File: cmd/typecmd.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghosttype/internal/observability"
)

// newTypeCmd creates the `type` command: a one-shot session that reads text
// from a file (or stdin with "-") and blocks until the session finishes.
func newTypeCmd() *cobra.Command {
	typeCmd := &cobra.Command{
		Use:   "type [file]",
		Short: "Types the contents of a file (or stdin) as one session",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("typing.wpm", cmd.Flags().Lookup("wpm")); err != nil {
				return err
			}
			if err := viper.BindPFlag("typing.strict", cmd.Flags().Lookup("strict")); err != nil {
				return err
			}
			if err := viper.BindPFlag("sink.kind", cmd.Flags().Lookup("sink")); err != nil {
				return err
			}
			return viper.BindPFlag("sink.target_url", cmd.Flags().Lookup("target"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			text, err := readInput(args)
			if err != nil {
				return err
			}

			components, err := initializeComponents(ctx, logger)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			if err := components.Ctrl.Start(ctx, text); err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}

			st := components.Ctrl.Status()
			logger.Info("Typing", zap.String("session_id", st.SessionID), zap.Int("length", st.Length))

			if err := components.Ctrl.Wait(ctx); err != nil {
				components.Ctrl.Stop()
				return err
			}

			final := components.Ctrl.Status()
			logger.Info("Session finished", zap.Int("emitted", final.Emitted))
			return nil
		},
	}

	typeCmd.Flags().Int("wpm", 0, "words per minute (overrides config)")
	typeCmd.Flags().Bool("strict", false, "strict pacing: no jitter, pauses or mistakes")
	typeCmd.Flags().String("sink", "", "keystroke sink: cdp or capture")
	typeCmd.Flags().String("target", "", "page URL for the cdp sink")
	return typeCmd
}

func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}
