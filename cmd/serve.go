// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/ghosttype/internal/control"
	"github.com/xkilldash9x/ghosttype/internal/observability"
)

// newServeCmd creates the `serve` command: the long-running control plane.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP control plane for interactive typing sessions",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("control.listen_addr", cmd.Flags().Lookup("listen")); err != nil {
				return err
			}
			if err := viper.BindPFlag("sink.kind", cmd.Flags().Lookup("sink")); err != nil {
				return err
			}
			if err := viper.BindPFlag("sink.target_url", cmd.Flags().Lookup("target")); err != nil {
				return err
			}
			return viper.BindPFlag("sink.headless", cmd.Flags().Lookup("headless"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			components, err := initializeComponents(ctx, logger)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			srv := control.NewServer(components.Cfg.Control, components.Ctrl, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(gctx)
			})

			err = g.Wait()
			// Interrupt any session still emitting before the sink goes away.
			components.Ctrl.Stop()
			if err != nil {
				logger.Error("Control plane exited with error", zap.Error(err))
				return err
			}
			logger.Info("Control plane stopped")
			return nil
		},
	}

	serveCmd.Flags().String("listen", "", "address for the control plane (host:port)")
	serveCmd.Flags().String("sink", "", "keystroke sink: cdp or capture")
	serveCmd.Flags().String("target", "", "page URL for the cdp sink")
	serveCmd.Flags().Bool("headless", false, "run the cdp browser headless")
	return serveCmd
}
