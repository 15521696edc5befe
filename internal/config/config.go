// Package config loads settings from defaults, an optional config file,
// CHESSCORE_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys
const (
	KeyHashMB   = "hash-mb"
	KeyDepth    = "depth"
	KeyMoveTime = "movetime"
	KeyNodes    = "nodes"
	KeyDataDir  = "data-dir"
	KeyLogLevel = "log-level"
	KeyUseTT    = "use-tt"
	KeyMaxMoves = "max-moves"
	KeyConfig   = "config"
)

const envPrefix = "CHESSCORE"

// Config wraps a viper instance.
type Config struct {
	*viper.Viper
}

// New returns a Config holding only the defaults.
func New() *Config {
	v := viper.New()
	v.SetDefault(KeyHashMB, 64)
	v.SetDefault(KeyDepth, 0)
	v.SetDefault(KeyMoveTime, 5*time.Second)
	v.SetDefault(KeyNodes, 0)
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyUseTT, true)
	v.SetDefault(KeyMaxMoves, 200)
	return &Config{Viper: v}
}

// Flags registers the settings on fs so they can be overridden from the
// command line.
func Flags(fs *pflag.FlagSet) {
	fs.Int(KeyHashMB, 64, "transposition table size in MB")
	fs.Int(KeyDepth, 0, "maximum search depth, 0 for no limit")
	fs.Duration(KeyMoveTime, 5*time.Second, "time per move, 0 for no limit")
	fs.Uint64(KeyNodes, 0, "node budget per search, 0 for no limit")
	fs.String(KeyDataDir, "", "directory for the database (default: platform data dir)")
	fs.String(KeyLogLevel, "info", "log level: trace, debug, info, warn, error")
	fs.Bool(KeyUseTT, true, "use the transposition table")
	fs.Int(KeyMaxMoves, 200, "ply limit for self-play games")
	fs.String(KeyConfig, "", "path to a config file")
}

// Load parses args with a fresh flag set, then binds flags and environment.
// Leftover positional arguments are returned.
func (c *Config) Load(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("chesscore", pflag.ContinueOnError)
	Flags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Bind(fs); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

// Bind attaches an already parsed flag set and the environment, and reads
// the config file named by the config flag, if any.
func (c *Config) Bind(fs *pflag.FlagSet) error {
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(KeyConfig); path != "" {
		c.SetConfigFile(path)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return c.validate()
}

func (c *Config) validate() error {
	var errs []error
	if c.GetInt(KeyHashMB) < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyHashMB))
	}
	if c.GetInt(KeyDepth) < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyDepth))
	}
	if c.GetDuration(KeyMoveTime) < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyMoveTime))
	}
	if _, err := zerolog.ParseLevel(c.GetString(KeyLogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured level, info if it does not parse.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.GetString(KeyLogLevel))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
