// Package config loads the small set of environment-driven settings the
// CLI does not already take as flags: the database path, log level, and
// export directory, each overridable by a KEEPMEM_* environment variable.
package config

import "github.com/spf13/viper"

// Config is the fully resolved runtime configuration.
type Config struct {
	DBPath    string
	LogLevel  string
	ExportDir string
}

// Load reads KEEPMEM_DB_PATH, KEEPMEM_LOG_LEVEL, and KEEPMEM_EXPORT_DIR
// from the environment, falling back to the given defaults. Flags passed
// by the caller (cobra) should overwrite the returned Config's fields
// after Load returns, since flags outrank environment variables.
func Load(defaultDBPath, defaultLogLevel string) Config {
	v := viper.New()
	v.SetEnvPrefix("KEEPMEM")
	v.AutomaticEnv()

	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("export_dir", "")

	return Config{
		DBPath:    v.GetString("db_path"),
		LogLevel:  v.GetString("log_level"),
		ExportDir: v.GetString("export_dir"),
	}
}
