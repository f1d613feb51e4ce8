package config

import (
	"crypto/tls"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/zsiec/tomitake/internal/certs"
)

//go:embed sample_config.toml
var sampleConfig string

// Relay contains chunking settings for byte sources.
type Relay struct {
	ChunkSize int `toml:"chunk_size"`
}

// Probe contains the container probe limits.
type Probe struct {
	Threshold int `toml:"threshold"`
	Ceiling   int `toml:"ceiling"`
}

// Piping contains piping-server settings.
type Piping struct {
	BaseURL        string `toml:"base_url"`
	AppURL         string `toml:"app_url"`
	HTTP3          bool   `toml:"http3"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// CertSHA256 pins the server certificate of a self-hosted piping
	// server, in base64 or hex. Empty uses normal CA verification.
	CertSHA256 string `toml:"cert_sha256"`
}

// SRT contains SRT ingest settings.
type SRT struct {
	ListenAddr string `toml:"listen_addr"`
	StreamID   string `toml:"stream_id"`
}

// Capture contains the default capture command.
type Capture struct {
	Command string `toml:"command"`
}

// Player contains the playback command and the codecs it accepts.
type Player struct {
	Command string   `toml:"command"`
	Codecs  []string `toml:"codecs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tomitake.
type Config struct {
	Relay   Relay   `toml:"relay"`
	Probe   Probe   `toml:"probe"`
	Piping  Piping  `toml:"piping"`
	SRT     SRT     `toml:"srt"`
	Capture Capture `toml:"capture"`
	Player  Player  `toml:"player"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error: defaults are used. It returns the config, the resolved
// path and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// PipingTimeout returns the piping connection timeout.
func (c *Config) PipingTimeout() time.Duration {
	return time.Duration(c.Piping.TimeoutSeconds) * time.Second
}

// PipingTLSConfig returns the pinned TLS configuration, or nil when no
// certificate is pinned.
func (c *Config) PipingTLSConfig() (*tls.Config, error) {
	if c.Piping.CertSHA256 == "" {
		return nil, nil
	}
	fp, err := certs.ParseFingerprint(c.Piping.CertSHA256)
	if err != nil {
		return nil, fmt.Errorf("piping.cert_sha256: %w", err)
	}
	return certs.PinnedConfig(fp), nil
}

// PlayerArgs splits the player command into an argv.
func (c *Config) PlayerArgs() []string {
	return strings.Fields(c.Player.Command)
}

// CaptureArgs splits the capture command into an argv. It is empty when no
// capture command is configured.
func (c *Config) CaptureArgs() []string {
	return strings.Fields(c.Capture.Command)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
