// File: cmd/setup.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/engine"
	"github.com/xkilldash9x/ghosttype/internal/keylog"
	"github.com/xkilldash9x/ghosttype/internal/sink"
	"github.com/xkilldash9x/ghosttype/internal/sink/cdp"
)

// runtimeComponents bundles everything a command needs to drive a session.
type runtimeComponents struct {
	Cfg     *config.Config
	Ctrl    *engine.Controller
	cleanup func()
}

// Shutdown releases the sink (and with it the browser, if one was started).
func (c *runtimeComponents) Shutdown() {
	if c.cleanup != nil {
		c.cleanup()
	}
}

// initializeComponents resolves the configured sink, keystroke log and
// engine controller.
func initializeComponents(ctx context.Context, logger *zap.Logger) (*runtimeComponents, error) {
	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var (
		snk     sink.Sink
		cleanup func()
	)
	switch cfg.Sink.Kind {
	case "cdp":
		cdpSink, err := cdp.New(ctx, cfg.Sink, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser sink: %w", err)
		}
		snk = cdpSink
		cleanup = cdpSink.Close
	case "capture":
		snk = sink.NewCapture()
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}

	klog := keylog.New(cfg.Keylog.Capacity)
	klog.SetEnabled(cfg.Keylog.Enabled)

	ctrl := engine.New(cfg.Typing, snk, klog, logger)
	return &runtimeComponents{Cfg: cfg, Ctrl: ctrl, cleanup: cleanup}, nil
}
