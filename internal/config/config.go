package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/petervdpas/callbridge/internal/util"
)

type Config struct {
	Renderer Renderer `json:"renderer"`
	Media    Media    `json:"media"`
	Journal  Journal  `json:"journal"`
}

type Renderer struct {
	// AppScript is the document application, relative to the host dir.
	AppScript string `json:"app_script"`

	// DevReload watches the app script and reloads the document on change.
	DevReload bool `json:"dev_reload"`

	// DevServerURL is shown in logs and passed to the document untouched.
	// Mirrors the original dev-server setup; the renderer itself always
	// executes the local app script.
	DevServerURL string `json:"dev_server_url"`

	// RemoteDebugPort is reserved for renderer debug tooling. Carried in
	// the config and validated, not interpreted by the host. 0 disables.
	RemoteDebugPort int `json:"remote_debug_port"`
}

type Media struct {
	DialTimeoutSec  int `json:"dial_timeout_seconds"`
	PingIntervalSec int `json:"ping_interval_seconds"`
}

type Journal struct {
	// Enabled turns emission journaling on.
	Enabled bool `json:"enabled"`

	// Path of the SQLite file, relative to the host dir.
	Path string `json:"path"`
}

func Default() Config {
	return Config{
		Renderer: Renderer{
			AppScript:       "app/call.js",
			DevReload:       false,
			DevServerURL:    "",
			RemoteDebugPort: 0,
		},
		Media: Media{
			DialTimeoutSec:  10,
			PingIntervalSec: 20,
		},
		Journal: Journal{
			Enabled: true,
			Path:    "data/emissions.db",
		},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Renderer.AppScript) == "" {
		return errors.New("renderer.app_script is required")
	}
	if c.Renderer.RemoteDebugPort < 0 || c.Renderer.RemoteDebugPort > 65535 {
		return errors.New("renderer.remote_debug_port must be 0..65535")
	}
	if d := strings.TrimSpace(c.Renderer.DevServerURL); d != "" {
		u, err := url.Parse(d)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("renderer.dev_server_url must be an http(s) URL")
		}
	}

	if c.Media.DialTimeoutSec < 1 || c.Media.DialTimeoutSec > 120 {
		return errors.New("media.dial_timeout_seconds must be 1..120")
	}
	if c.Media.PingIntervalSec < 1 || c.Media.PingIntervalSec > 300 {
		return errors.New("media.ping_interval_seconds must be 1..300")
	}

	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return errors.New("journal.path is required when journal is enabled")
	}

	return nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadPartial reads a config file without validation. Useful for reading
// individual fields when full validation may fail.
func LoadPartial(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	b = stripBOM(b)

	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Ensure loads the config at path, creating it with defaults first when it
// does not exist. The second return value reports whether it was created.
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, false, err
		}
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return Config{}, false, fmt.Errorf("write default config: %w", err)
		}
		return cfg, true, nil
	}

	cfg, err := Load(path)
	return cfg, false, err
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return util.WriteJSONFile(path, cfg)
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
