package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zsiec/tomitake/internal/config"
	"github.com/zsiec/tomitake/internal/ebml"
	"github.com/zsiec/tomitake/internal/logging"
	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/transfer"
)

type commandContext struct {
	configFlag *string
	logLevel   *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error

	transfers *transfer.Manager
}

func newCommandContext(configFlag, logLevel *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		level := cfg.Logging.Level
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			level = *c.logLevel
		}
		logger, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
		if err != nil {
			c.configErr = err
			return
		}
		slog.SetDefault(logger)
		c.config = cfg
		c.logger = logger
		c.transfers = transfer.NewManager(logger)
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. The
// signal also cancels every transfer the command has started.
func (c *commandContext) signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	unwatch := context.AfterFunc(ctx, c.cancelTransfers)
	return ctx, func() {
		unwatch()
		stop()
	}
}

// cancelTransfers stops every running transfer.
func (c *commandContext) cancelTransfers() {
	if c.transfers == nil {
		return
	}
	for _, t := range c.transfers.List() {
		c.log().Info("cancelling transfer", "transfer", t.ID, "mode", t.Mode, "url", t.URL,
			"elapsed", time.Since(t.StartedAt).Round(time.Millisecond))
	}
	c.transfers.CancelAll()
}

func (c *commandContext) pipingClient(http3 bool) *piping.Client {
	cfg := c.config
	// Validated by config.Load.
	tlsConfig, _ := cfg.PipingTLSConfig()
	return piping.NewClient(piping.Options{
		HTTP3:     http3 || cfg.Piping.HTTP3,
		Timeout:   cfg.PipingTimeout(),
		TLSConfig: tlsConfig,
		ChunkSize: cfg.Relay.ChunkSize,
		Logger:    c.log(),
	})
}

func (c *commandContext) probeOptions() []ebml.ProbeOption {
	return []ebml.ProbeOption{
		ebml.WithThreshold(c.config.Probe.Threshold),
		ebml.WithCeiling(c.config.Probe.Ceiling),
	}
}

func (c *commandContext) runner(client *piping.Client, observer func(n int)) *transfer.Runner {
	return transfer.NewRunner(transfer.Options{
		Client:       client,
		Manager:      c.transfers,
		ProbeOptions: c.probeOptions(),
		AppURL:       c.config.Piping.AppURL,
		Observer:     observer,
		Logger:       c.log(),
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
