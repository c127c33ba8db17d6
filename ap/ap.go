// Package ap brings up the Wi-Fi access point clients use to reach the
// control page.
package ap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"go.uber.org/zap"
)

// Config holds access point settings.
type Config struct {
	Interface   string `yaml:"interface"`
	SSID        string `yaml:"ssid"`
	Passphrase  string `yaml:"passphrase"`
	Channel     int    `yaml:"channel"`
	MaxStations int    `yaml:"max_stations"`

	// Hostapd is the hostapd binary. When empty the access point is assumed
	// to be managed by the system and only ConfigPath is written.
	Hostapd    string `yaml:"hostapd"`
	ConfigPath string `yaml:"config_path"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Interface == "" {
		c.Interface = "wlan0"
	}
	if c.SSID == "" {
		c.SSID = "ESP32_Servo_AP"
	}
	if c.Passphrase == "" {
		c.Passphrase = "123456789"
	}
	if c.Channel == 0 {
		c.Channel = 1
	}
	if c.MaxStations == 0 {
		c.MaxStations = 4
	}
	if c.ConfigPath == "" {
		c.ConfigPath = "/run/servoap/hostapd.conf"
	}
}

// Validate checks the settings against WPA2-PSK limits. Values are written
// one per line into hostapd.conf, so control characters are rejected.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"interface":  c.Interface,
		"ssid":       c.SSID,
		"passphrase": c.Passphrase,
	} {
		if strings.ContainsFunc(v, unicode.IsControl) {
			return fmt.Errorf("%s contains control characters", name)
		}
	}
	if n := len(c.SSID); n < 1 || n > 32 {
		return fmt.Errorf("ssid must be 1-32 bytes, got %d", n)
	}
	if n := len(c.Passphrase); n < 8 || n > 63 {
		return fmt.Errorf("passphrase must be 8-63 characters, got %d", n)
	}
	if c.Channel < 1 || c.Channel > 14 {
		return fmt.Errorf("channel %d out of range 1-14", c.Channel)
	}
	if c.MaxStations < 1 {
		return fmt.Errorf("max_stations must be at least 1")
	}
	return nil
}

var hostapdConf = template.Must(template.New("hostapd").Parse(`interface={{.Interface}}
driver=nl80211
ssid={{.SSID}}
hw_mode=g
channel={{.Channel}}
max_num_sta={{.MaxStations}}
auth_algs=1
ignore_broadcast_ssid=0
wpa=2
wpa_key_mgmt=WPA-PSK
rsn_pairwise=CCMP
wpa_passphrase={{.Passphrase}}
`))

// Render writes the hostapd configuration for c.
func (c *Config) Render(w io.Writer) error {
	return hostapdConf.Execute(w, c)
}

// AccessPoint runs hostapd for the lifetime of a context.
type AccessPoint struct {
	cfg    Config
	logger *zap.SugaredLogger
	cmd    *exec.Cmd
	done   chan error
}

// New validates cfg and returns an AccessPoint. Call Defaults on cfg first.
func New(cfg Config, logger *zap.SugaredLogger) (*AccessPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("access point config: %w", err)
	}
	return &AccessPoint{cfg: cfg, logger: logger}, nil
}

// Start writes the hostapd configuration and, if a binary is configured,
// starts hostapd. The process is killed when ctx is cancelled.
func (a *AccessPoint) Start(ctx context.Context) error {
	a.logger.Info("Initializing Wi-Fi Access Point...")

	if err := a.writeConfig(); err != nil {
		return err
	}

	if a.cfg.Hostapd == "" {
		a.logger.Infof("Access point managed by the system, config written to %s", a.cfg.ConfigPath)
		return nil
	}

	a.cmd = exec.CommandContext(ctx, a.cfg.Hostapd, a.cfg.ConfigPath)
	a.cmd.Stdout = os.Stdout
	a.cmd.Stderr = os.Stderr
	if err := a.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", a.cfg.Hostapd, err)
	}

	a.done = make(chan error, 1)
	go func() {
		err := a.cmd.Wait()
		if ctx.Err() == nil {
			a.logger.Errorf("hostapd exited: %v", err)
		}
		a.done <- err
	}()

	a.logger.Infof("Wi-Fi Access Point Initialized. SSID: %s", a.cfg.SSID)
	return nil
}

// Wait blocks until hostapd exits. It returns nil when no process was
// started.
func (a *AccessPoint) Wait() error {
	if a.done == nil {
		return nil
	}
	return <-a.done
}

func (a *AccessPoint) writeConfig() error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.ConfigPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(a.cfg.ConfigPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.cfg.ConfigPath, err)
	}
	if err := a.cfg.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", a.cfg.ConfigPath, err)
	}
	return f.Close()
}
