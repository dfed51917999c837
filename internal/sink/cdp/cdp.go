// File: internal/sink/cdp/cdp.go
// Package cdp implements a keystroke sink that drives a browser tab over the
// Chrome DevTools Protocol. Each press becomes an Input key event in the
// focused element of the target page, which makes it a convenient stand-in
// for a hardware keyboard link when testing typing-pattern detectors.
package cdp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghosttype/internal/config"
	"github.com/xkilldash9x/ghosttype/internal/sink"
)

// Sink drives a dedicated browser tab. All presses run against the tab's
// chromedp context with a per-action timeout.
type Sink struct {
	logger        *zap.Logger
	actionTimeout time.Duration

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu        sync.Mutex
	available bool
}

var _ sink.Sink = (*Sink)(nil)

// New launches the browser, navigates to the configured target URL, and
// optionally clicks a selector so keystrokes land in a field.
func New(ctx context.Context, cfg config.SinkConfig, logger *zap.Logger) (*Sink, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Sink{
		logger:        logger.With(zap.String("component", "cdp_sink")),
		actionTimeout: cfg.ActionTimeout,
		allocCancel:   allocCancel,
		tabCtx:        tabCtx,
		tabCancel:     tabCancel,
	}
	if s.actionTimeout <= 0 {
		s.actionTimeout = 10 * time.Second
	}

	actions := []chromedp.Action{
		chromedp.Navigate(cfg.TargetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if cfg.FocusSelector != "" {
		actions = append(actions, chromedp.Click(cfg.FocusSelector, chromedp.ByQuery))
	}

	navCtx, cancel := context.WithTimeout(tabCtx, 90*time.Second)
	defer cancel()
	if err := chromedp.Run(navCtx, actions...); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("cdp sink: failed to open target %q: %w", cfg.TargetURL, err)
	}

	s.available = true
	s.logger.Info("CDP sink ready", zap.String("target", cfg.TargetURL))
	return s, nil
}

// Available implements sink.Sink.
func (s *Sink) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tabCtx.Err() != nil {
		s.available = false
	}
	return s.available
}

// PressCharacter implements sink.Sink.
func (s *Sink) PressCharacter(ctx context.Context, ch rune) error {
	return s.press(ctx, chromedp.KeyEvent(string(ch)))
}

// PressBackspace implements sink.Sink. Backspace goes out as an explicit
// KeyDown/KeyUp pair so the page sees the same event sequence a physical key
// produces.
func (s *Sink) PressBackspace(ctx context.Context) error {
	down := input.DispatchKeyEvent(input.KeyRawDown).
		WithKey("Backspace").
		WithWindowsVirtualKeyCode(8)
	up := input.DispatchKeyEvent(input.KeyUp).
		WithKey("Backspace").
		WithWindowsVirtualKeyCode(8)
	return s.press(ctx, down, up)
}

func (s *Sink) press(ctx context.Context, actions ...chromedp.Action) error {
	if !s.Available() {
		return sink.ErrUnavailable
	}

	opCtx, cancel := context.WithTimeout(s.tabCtx, s.actionTimeout)
	defer cancel()
	// The caller's context aborts the press too; chromedp only honors the
	// context it was given, so watch the other one alongside.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		s.mu.Lock()
		s.available = false
		s.mu.Unlock()
		s.logger.Warn("CDP key dispatch failed; marking sink unavailable", zap.Error(err))
		return fmt.Errorf("%w: %v", sink.ErrUnavailable, err)
	}
	return nil
}

// Close tears down the tab and browser process.
func (s *Sink) Close() {
	s.mu.Lock()
	s.available = false
	s.mu.Unlock()
	s.tabCancel()
	s.allocCancel()
}
