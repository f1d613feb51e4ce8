package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizePiping()
	c.normalizeSRT()
	c.normalizePlayer()
	c.Capture.Command = strings.TrimSpace(c.Capture.Command)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePiping() {
	if value, ok := os.LookupEnv("TOMITAKE_PIPING_URL"); ok && strings.TrimSpace(value) != "" {
		c.Piping.BaseURL = value
	}
	c.Piping.BaseURL = strings.TrimSpace(c.Piping.BaseURL)
	if c.Piping.BaseURL == "" {
		c.Piping.BaseURL = defaultPipingBaseURL
	}
	c.Piping.AppURL = strings.TrimSpace(c.Piping.AppURL)
	c.Piping.CertSHA256 = strings.TrimSpace(c.Piping.CertSHA256)
	if c.Piping.TimeoutSeconds == 0 {
		c.Piping.TimeoutSeconds = defaultPipingTimeout
	}
}

func (c *Config) normalizeSRT() {
	c.SRT.ListenAddr = strings.TrimSpace(c.SRT.ListenAddr)
	if c.SRT.ListenAddr == "" {
		c.SRT.ListenAddr = defaultSRTListenAddr
	}
	c.SRT.StreamID = strings.TrimSpace(c.SRT.StreamID)
}

func (c *Config) normalizePlayer() {
	c.Player.Command = strings.TrimSpace(c.Player.Command)
	if c.Player.Command == "" {
		c.Player.Command = defaultPlayerCommand
	}
	codecs := make([]string, 0, len(c.Player.Codecs))
	seen := make(map[string]struct{}, len(c.Player.Codecs))
	for _, codec := range c.Player.Codecs {
		normalized := strings.ToLower(strings.TrimSpace(codec))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		codecs = append(codecs, normalized)
	}
	if len(codecs) == 0 {
		codecs = append(codecs, defaultPlayerCodecs...)
	}
	c.Player.Codecs = codecs
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "text", "console":
		c.Logging.Format = "text"
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
