// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "127.0.0.1:8839", cfg.Control.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Control.ShutdownGrace)
	assert.Equal(t, "capture", cfg.Sink.Kind)
	assert.Equal(t, 1024, cfg.Keylog.Capacity)
	assert.False(t, cfg.Keylog.Enabled)

	assert.Equal(t, 100, cfg.Typing.WPM)
	assert.Equal(t, 12, cfg.Typing.JitterPct)
	assert.Equal(t, NewlineSpace, cfg.Typing.Newline)
	assert.Equal(t, IndentStripAll, cfg.Typing.IndentStrip)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper_ClampsTyping(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("typing.wpm", 9999)
	v.Set("typing.jitter_pct", 1)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Typing.WPM)
	assert.Equal(t, 5, cfg.Typing.JitterPct)
}

func TestNewConfigFromViper_RejectsBadHostFields(t *testing.T) {
	t.Run("bad sink kind", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("sink.kind", "teletype")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sink.kind")
	})

	t.Run("cdp requires target url", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("sink.kind", "cdp")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target_url")
	})

	t.Run("missing listen addr", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("control.listen_addr", "")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
	})

	t.Run("enabled keylog needs capacity", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("keylog.enabled", true)
		v.Set("keylog.capacity", 0)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
	})
}
