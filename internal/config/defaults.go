package config

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultConfigPath    = "~/.config/labnote/config.toml"
	defaultDataDir       = "~/.local/share/labnote"
	defaultLogDir        = "~/.local/share/labnote/logs"
	defaultDatabaseFile  = "labnote.db"
	defaultStoreTimeout  = 5
	defaultSealingKeyEnv = "LABNOTE_SEALING_KEY"
	defaultAPIBind       = "127.0.0.1:7488"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	dsnEnv               = "LABNOTE_DSN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			Driver:         DriverSQLite,
			TimeoutSeconds: defaultStoreTimeout,
		},
		Sealing: Sealing{
			KeyEnv: defaultSealingKeyEnv,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
