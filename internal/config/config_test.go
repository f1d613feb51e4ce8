package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/zsiec/tomitake/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TOMITAKE_PIPING_URL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	want := filepath.Join(tempHome, ".config", "tomitake", "config.toml")
	if resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}

	def := config.Default()
	if cfg.Relay.ChunkSize != def.Relay.ChunkSize {
		t.Fatalf("chunk size = %d, want %d", cfg.Relay.ChunkSize, def.Relay.ChunkSize)
	}
	if cfg.Probe.Threshold != 200 || cfg.Probe.Ceiling != 64*1024 {
		t.Fatalf("probe = %+v, want 200/65536", cfg.Probe)
	}
	if cfg.Piping.BaseURL != "https://ppng.io/" {
		t.Fatalf("base url = %q", cfg.Piping.BaseURL)
	}
	if cfg.Piping.HTTP3 {
		t.Fatal("expected HTTP/3 disabled by default")
	}
	if cfg.Logging.Format != "text" || cfg.Logging.Level != "info" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if got := cfg.PlayerArgs(); len(got) == 0 || got[0] != "ffplay" {
		t.Fatalf("PlayerArgs = %v", got)
	}
	if got := cfg.CaptureArgs(); len(got) != 0 {
		t.Fatalf("CaptureArgs = %v, want none", got)
	}
}

func TestLoadFileOverridesAndNormalizes(t *testing.T) {
	t.Setenv("TOMITAKE_PIPING_URL", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[relay]
chunk_size = 4096

[piping]
base_url = "  https://piping.example/  "
http3 = true

[player]
command = "mpv --no-terminal -"
codecs = ["VP9", " opus ", "vp9", ""]

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved %q exists=%v", resolved, exists)
	}
	if cfg.Relay.ChunkSize != 4096 {
		t.Errorf("chunk size = %d", cfg.Relay.ChunkSize)
	}
	if cfg.Piping.BaseURL != "https://piping.example/" {
		t.Errorf("base url = %q", cfg.Piping.BaseURL)
	}
	if !cfg.Piping.HTTP3 {
		t.Error("http3 not applied")
	}
	if got := strings.Join(cfg.Player.Codecs, ","); got != "vp9,opus" {
		t.Errorf("codecs = %q, want vp9,opus", got)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Probe.Threshold != 200 {
		t.Errorf("unset probe threshold = %d, want default", cfg.Probe.Threshold)
	}
}

func TestLoadEnvPipingURL(t *testing.T) {
	t.Setenv("TOMITAKE_PIPING_URL", "http://localhost:8080/")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Piping.BaseURL != "http://localhost:8080/" {
		t.Fatalf("base url = %q, want env value", cfg.Piping.BaseURL)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[relay]\nchunk = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{name: "zero chunk", mutate: func(c *config.Config) { c.Relay.ChunkSize = 0 }, want: "relay.chunk_size"},
		{name: "ceiling below threshold", mutate: func(c *config.Config) { c.Probe.Ceiling = 100 }, want: "probe.ceiling"},
		{name: "relative base url", mutate: func(c *config.Config) { c.Piping.BaseURL = "ppng.io" }, want: "piping.base_url"},
		{name: "bad app url", mutate: func(c *config.Config) { c.Piping.AppURL = "ftp://x" }, want: "piping.app_url"},
		{name: "bad timeout", mutate: func(c *config.Config) { c.Piping.TimeoutSeconds = -1 }, want: "piping.timeout_seconds"},
		{name: "bad level", mutate: func(c *config.Config) { c.Logging.Level = "loud" }, want: "logging.level"},
		{name: "bad cert pin", mutate: func(c *config.Config) { c.Piping.CertSHA256 = "not-a-hash" }, want: "piping.cert_sha256"},
		{name: "hex cert pin", mutate: func(c *config.Config) { c.Piping.CertSHA256 = strings.Repeat("ab", 32) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate = %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleMatchesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var sample config.Config
	if err := toml.Unmarshal(data, &sample); err != nil {
		t.Fatalf("sample does not parse: %v", err)
	}
	def := config.Default()
	if sample.Relay != def.Relay || sample.Probe != def.Probe || sample.Piping != def.Piping || sample.SRT != def.SRT || sample.Logging != def.Logging {
		t.Errorf("sample differs from defaults:\n got %+v\nwant %+v", sample, def)
	}
	if sample.Player.Command != def.Player.Command {
		t.Errorf("sample player command = %q, want %q", sample.Player.Command, def.Player.Command)
	}
}
