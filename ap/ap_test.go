package ap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultsValidate(t *testing.T) {
	var cfg Config
	cfg.Defaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.MaxStations)
	assert.Equal(t, "ESP32_Servo_AP", cfg.SSID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty ssid", func(c *Config) { c.SSID = "" }},
		{"long ssid", func(c *Config) { c.SSID = strings.Repeat("s", 33) }},
		{"short passphrase", func(c *Config) { c.Passphrase = "1234567" }},
		{"long passphrase", func(c *Config) { c.Passphrase = strings.Repeat("p", 64) }},
		{"channel", func(c *Config) { c.Channel = 15 }},
		{"stations", func(c *Config) { c.MaxStations = -1 }},
		{"ssid newline", func(c *Config) { c.SSID = "servo\nctrl_interface=/tmp" }},
		{"passphrase newline", func(c *Config) { c.Passphrase = "12345678\nwpa=1" }},
		{"passphrase carriage return", func(c *Config) { c.Passphrase = "12345678\r" }},
		{"interface tab", func(c *Config) { c.Interface = "wlan0\tx" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.Defaults()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRender(t *testing.T) {
	cfg := Config{SSID: "servo", Passphrase: "secretpass", MaxStations: 2}
	cfg.Defaults()

	var buf bytes.Buffer
	require.NoError(t, cfg.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "interface=wlan0\n")
	assert.Contains(t, out, "ssid=servo\n")
	assert.Contains(t, out, "wpa=2\n")
	assert.Contains(t, out, "wpa_key_mgmt=WPA-PSK\n")
	assert.Contains(t, out, "wpa_passphrase=secretpass\n")
	assert.Contains(t, out, "max_num_sta=2\n")
}

func TestStartWritesConfig(t *testing.T) {
	cfg := Config{ConfigPath: filepath.Join(t.TempDir(), "ap", "hostapd.conf")}
	cfg.Defaults()

	a, err := New(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	assert.NoError(t, a.Wait())

	b, err := os.ReadFile(cfg.ConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ssid=ESP32_Servo_AP\n")
}

func TestStartMissingBinary(t *testing.T) {
	cfg := Config{
		ConfigPath: filepath.Join(t.TempDir(), "hostapd.conf"),
		Hostapd:    filepath.Join(t.TempDir(), "no-such-hostapd"),
	}
	cfg.Defaults()

	a, err := New(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Error(t, a.Start(context.Background()))
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := New(Config{}, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}
