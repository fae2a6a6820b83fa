// Package config provides configuration types, defaults and loading for
// nutmeg-highlighter.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/viper"

	"github.com/spicery/nutmeg-highlighter/internal/log"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

const (
	// LocalConfigFile is looked up in the current directory first.
	LocalConfigFile = ".nutmeg-highlighter.yaml"
	// EnvPrefix prefixes environment overrides, e.g. NUTMEG_TAB_WIDTH.
	EnvPrefix = "NUTMEG"
)

// Config holds all configuration options.
type Config struct {
	SyntaxDirs            []string      `mapstructure:"syntax_dirs" yaml:"syntax_dirs"`
	Color                 string        `mapstructure:"color" yaml:"color"` // "auto" (default), "always" or "never"
	TabWidth              int           `mapstructure:"tab_width" yaml:"tab_width"`
	WholeRepaintThreshold int           `mapstructure:"whole_repaint_threshold" yaml:"whole_repaint_threshold"`
	Debounce              time.Duration `mapstructure:"debounce" yaml:"debounce"` // watch mode event coalescing
	Debug                 bool          `mapstructure:"debug" yaml:"debug"`
	LogFile               string        `mapstructure:"log_file" yaml:"log_file"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		SyntaxDirs:            []string{},
		Color:                 ColorAuto,
		TabWidth:              4,
		WholeRepaintThreshold: 20,
		Debounce:              100 * time.Millisecond,
		LogFile:               "nutmeg-highlighter.log",
	}
}

// DefaultUserConfigDir returns ~/.config/nutmeg-highlighter.
func DefaultUserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nutmeg-highlighter")
}

// SetDefaults registers the defaults with v so that environment overrides
// apply to every key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("syntax_dirs", d.SyntaxDirs)
	v.SetDefault("color", d.Color)
	v.SetDefault("tab_width", d.TabWidth)
	v.SetDefault("whole_repaint_threshold", d.WholeRepaintThreshold)
	v.SetDefault("debounce", d.Debounce)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_file", d.LogFile)
}

// Load reads configuration into v and decodes it. An explicit cfgFile must
// exist. Otherwise the lookup order is:
//  1. .nutmeg-highlighter.yaml (current directory)
//  2. ~/.config/nutmeg-highlighter/config.yaml (user config)
//
// and finding neither is not an error. Load returns the config file used,
// or "" when none was read.
func Load(v *viper.Viper, cfgFile string) (Config, string, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case fileExists(LocalConfigFile):
		v.SetConfigFile(LocalConfigFile)
	default:
		if dir := DefaultUserConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "no config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, "", err
	}
	used := v.ConfigFileUsed()
	if used != "" && !fileExists(used) {
		used = ""
	}
	log.Info(log.CatConfig, "configuration loaded", "file", used, "syntax_dirs", len(cfg.SyntaxDirs))
	return cfg, used, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validate checks option values.
func Validate(c Config) error {
	var errs []error
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("color: must be %q, %q or %q, got %q", ColorAuto, ColorAlways, ColorNever, c.Color))
	}
	if c.TabWidth < 1 || c.TabWidth > 32 {
		errs = append(errs, fmt.Errorf("tab_width: must be between 1 and 32, got %d", c.TabWidth))
	}
	if c.WholeRepaintThreshold < 1 {
		errs = append(errs, fmt.Errorf("whole_repaint_threshold: must be positive, got %d", c.WholeRepaintThreshold))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce: must not be negative, got %s", c.Debounce))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Profile picks the color profile for output given the profile detected
// for the terminal.
func (c Config) Profile(detected termenv.Profile) termenv.Profile {
	switch c.Color {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		if detected == termenv.Ascii {
			return termenv.ANSI256
		}
	}
	return detected
}
