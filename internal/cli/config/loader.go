package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/leapstack-labs/leapkpi/internal/config"
)

type loggerKey struct{}

// maxAncestors bounds the upward search for leapkpi.yaml.
const maxAncestors = 10

// envPrefix is the prefix of environment overrides. A double underscore
// separates nested keys: LEAPKPI_FACTS__DSN sets facts.dsn.
const envPrefix = "LEAPKPI_"

// flagKeys maps CLI flag names to the config keys they override.
// Flags not listed map kebab-case to snake_case.
var flagKeys = map[string]string{
	"state":        "state_path",
	"facts-driver": "facts.driver",
	"facts-dsn":    "facts.dsn",
	"seeds-dir":    "facts.seeds_dir",
	"facilities":   "facts.facilities_file",
	"addr":         "api.addr",
}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// nearestProjectDir walks from dir toward the filesystem root and returns
// the first directory holding a leapkpi config file, or "".
func nearestProjectDir(dir string) string {
	for range maxAncestors {
		if sharedcfg.FindConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot picks the directory relative paths resolve against:
// the explicit config file's directory, else the nearest ancestor of the
// working directory holding leapkpi.yaml, else the working directory.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := nearestProjectDir(cwd); root != "" {
		return root
	}
	return cwd
}

// underRoot joins relative paths onto root. Empty, absolute and in-memory
// paths pass through.
func underRoot(path, root string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// ResetConfig forgets the loaded configuration. Tests call it between
// command invocations.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig layers defaults, leapkpi.yaml, LEAPKPI_ environment variables
// and changed flags, later layers winning, then validates the result.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile)

	// Paths given as flags are relative to the working directory, not the
	// project root.
	flagPaths := make(map[string]string)
	if flags != nil {
		for _, name := range []string{"state", "seeds-dir", "facilities"} {
			if f := flags.Lookup(name); f != nil && f.Changed && f.Value.String() != "" {
				v := f.Value.String()
				if abs, err := filepath.Abs(v); err == nil && v != ":memory:" {
					v = abs
				}
				flagPaths[name] = v
			}
		}
	}

	// defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"state_path":        DefaultStateFile,
		"log_level":         DefaultLogLevel,
		"verbose":           false,
		"output":            DefaultOutput,
		"workers":           DefaultWorkers,
		"facts.driver":      sharedcfg.DefaultFactsDriver,
		"facts.seeds_dir":   sharedcfg.DefaultSeedsDir,
		"api.addr":          sharedcfg.DefaultAPIAddr,
		"outlier.window":    sharedcfg.DefaultOutlierWindow,
		"outlier.threshold": sharedcfg.DefaultOutlierThreshold,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// project file
	if cfgFile == "" {
		cfgFile = sharedcfg.FindConfigFile(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read %s: %w", configFileUsed, err)
		}
	}

	// environment
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	project := cfg.Project()
	project.ApplyDefaults()
	project.ExpandEnv()
	cfg.Facts, cfg.Outlier, cfg.API = project.Facts, project.Outlier, project.API

	cfg.ProjectRoot = projectRoot
	cfg.StatePath = pick(flagPaths["state"], underRoot(cfg.StatePath, projectRoot))
	cfg.Facts.SeedsDir = pick(flagPaths["seeds-dir"], underRoot(cfg.Facts.SeedsDir, projectRoot))
	cfg.Facts.FacilitiesFile = pick(flagPaths["facilities"], underRoot(cfg.Facts.FacilitiesFile, projectRoot))
	if cfg.Facts.Driver == "duckdb" {
		cfg.Facts.DSN = underRoot(cfg.Facts.DSN, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

func pick(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey is the context key the root command stores its logger under.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger returns the logger stored in ctx, or a discarding logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds the CLI logger: a text handler on w at the configured
// level, or debug when verbose is set.
func NewLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
