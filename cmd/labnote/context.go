package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"labnote/internal/api"
	"labnote/internal/config"
	"labnote/internal/labstore"
	"labnote/internal/logging"
	"labnote/internal/metrics"
	"labnote/internal/parser"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// commandLogger writes to the log file only so stdout and stderr stay
// reserved for command output.
func (c *commandContext) commandLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
	})
}

// withNotebook opens the record store for the duration of fn.
func (c *commandContext) withNotebook(fn func(*api.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.commandLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	svc, store, err := openNotebook(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(svc)
}

func openNotebook(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*api.Service, *labstore.Store, error) {
	store, err := labstore.Open(cfg,
		labstore.WithLogger(logger),
		labstore.WithMetrics(m),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open record store: %w", err)
	}
	svc := api.NewService(
		parser.New(parser.WithPreamble(cfg.Parser.KeepPreamble)),
		store,
		api.WithLogger(logger),
		api.WithMetrics(m),
	)
	return svc, store, nil
}

// newParser builds a parser from the parser config without touching the
// store.
func (c *commandContext) newParser() (*parser.Parser, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return parser.New(parser.WithPreamble(cfg.Parser.KeepPreamble)), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

var errNoInput = errors.New("no note text provided")

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
