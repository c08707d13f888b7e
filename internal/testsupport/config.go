package testsupport

import (
	"bytes"
	"encoding/base64"
	"path/filepath"
	"testing"

	"labnote/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a sqlite config rooted in a unique temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.DSN = filepath.Join(base, "data", "labnote.db")
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAppendSubRows keeps earlier section and measurement rows on re-upsert.
func WithAppendSubRows() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.AppendSubRows = true
	}
}

// WithPreamble enables preamble capture in the parser.
func WithPreamble() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Parser.KeepPreamble = true
	}
}

// WithSealing enables field sealing with a fixed test key exported through
// a per-test environment variable.
func WithSealing() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sealing.Enabled = true
		b.cfg.Sealing.KeyEnv = "LABNOTE_TEST_SEALING_KEY"
		b.t.Setenv(b.cfg.Sealing.KeyEnv, base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x5a}, 32)))
	}
}

// WithPostgres points the config at an external postgres DSN.
func WithPostgres(dsn string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Driver = config.DriverPostgres
		b.cfg.Store.DSN = dsn
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
