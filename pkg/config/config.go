// Package config loads squeaky settings from a YAML file, a .env file and
// SQUEAKY_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/squeaky/pkg/search"
)

// Sentinel validation errors.
var (
	ErrInvalidBackend   = errors.New("invalid search backend")
	ErrInvalidPattern   = errors.New("invalid regular expression")
	ErrInvalidCacheSize = errors.New("heuristic cache size must be positive")
	ErrInvalidLogLevel  = errors.New("invalid log level")
)

// Search backends.
const (
	BackendGrep = "grep"
	BackendWalk = "walk"
)

const (
	configName      = ".squeaky"
	configType      = "yaml"
	envPrefix       = "SQUEAKY"
	envKeySeparator = "_"
	dotEnvFile      = ".env"
)

// Config holds all squeaky settings.
type Config struct {
	Denylist    DenylistConfig    `mapstructure:"denylist"`
	Search      SearchConfig      `mapstructure:"search"`
	Specificity SpecificityConfig `mapstructure:"specificity"`
	Graph       GraphConfig       `mapstructure:"graph"`
	Heuristic   HeuristicConfig   `mapstructure:"heuristic"`
	Verify      VerifyConfig      `mapstructure:"verify"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// DenylistConfig lists classes that are never namespaced.
type DenylistConfig struct {
	Classes  []string `mapstructure:"classes"`
	Prefixes []string `mapstructure:"prefixes"`
}

// SearchConfig controls where references are looked up and rewritten.
type SearchConfig struct {
	Directories []string `mapstructure:"directories"`
	PathRoot    string   `mapstructure:"path_root"`
	Extensions  []string `mapstructure:"extensions"`
	ExcludePath string   `mapstructure:"exclude_path"`
	Regexps     []string `mapstructure:"regexps"`
	Backend     string   `mapstructure:"backend"`
}

// Paths returns the search directories joined onto the path root.
func (s SearchConfig) Paths() []string {
	return search.DirectoryPaths(s.PathRoot, s.Directories)
}

// SpecificityConfig orders stylesheet paths for tie breaking.
type SpecificityConfig struct {
	Buckets          []string `mapstructure:"buckets"`
	ExceptionBuckets []string `mapstructure:"exception_buckets"`
}

// GraphConfig locates the dependency report and filters its modules.
type GraphConfig struct {
	StatsPath           string   `mapstructure:"stats_path"`
	FilterInclude       []string `mapstructure:"filter_include"`
	FilterExclude       []string `mapstructure:"filter_exclude"`
	CommonInclude       string   `mapstructure:"common_include"`
	TemplateLeafInclude string   `mapstructure:"template_leaf_include"`
	SqkdExclude         string   `mapstructure:"sqkd_exclude"`
	CommonChunkName     string   `mapstructure:"common_chunk_name"`
}

// HeuristicConfig tunes the ancestor heuristic.
type HeuristicConfig struct {
	FeaturePatterns []string `mapstructure:"feature_patterns"`
	CacheSize       int      `mapstructure:"cache_size"`
}

// VerifyConfig tunes the class name verification.
type VerifyConfig struct {
	ComposeDirectories []string `mapstructure:"compose_directories"`
	UsageExtensions    []string `mapstructure:"usage_extensions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds export settings. Empty values disable an exporter.
type TelemetryConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD, ./config and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load(dotEnvFile)

	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("denylist.classes", DefaultDenylistClasses)
	viperCfg.SetDefault("denylist.prefixes", DefaultDenylistPrefixes)

	viperCfg.SetDefault("search.directories", DefaultSearchDirectories)
	viperCfg.SetDefault("search.path_root", "")
	viperCfg.SetDefault("search.extensions", []string{})
	viperCfg.SetDefault("search.exclude_path", DefaultExcludePath)
	viperCfg.SetDefault("search.regexps", []string{})
	viperCfg.SetDefault("search.backend", DefaultSearchBackend)

	viperCfg.SetDefault("specificity.buckets", defaultBuckets())
	viperCfg.SetDefault("specificity.exception_buckets", defaultExceptionBuckets())

	viperCfg.SetDefault("graph.stats_path", DefaultStatsPath)
	viperCfg.SetDefault("graph.filter_include", []string{})
	viperCfg.SetDefault("graph.filter_exclude", []string{})
	viperCfg.SetDefault("graph.common_include", DefaultCommonInclude)
	viperCfg.SetDefault("graph.template_leaf_include", DefaultTemplateLeaf)
	viperCfg.SetDefault("graph.sqkd_exclude", "")
	viperCfg.SetDefault("graph.common_chunk_name", DefaultCommonChunkName)

	viperCfg.SetDefault("heuristic.feature_patterns", []string{})
	viperCfg.SetDefault("heuristic.cache_size", DefaultCacheSize)

	viperCfg.SetDefault("verify.compose_directories", []string{})
	viperCfg.SetDefault("verify.usage_extensions", defaultUsageExtensions())

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.metrics_textfile", "")
}

// Validate checks enumerations, sizes and that every pattern compiles.
func (c *Config) Validate() error {
	switch c.Search.Backend {
	case BackendGrep, BackendWalk:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Search.Backend)
	}

	if c.Heuristic.CacheSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Heuristic.CacheSize)
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	lists := [][]string{c.Search.Regexps, c.Graph.FilterInclude, c.Graph.FilterExclude, c.Heuristic.FeaturePatterns}
	for _, list := range lists {
		if _, err := CompileAll(list); err != nil {
			return err
		}
	}

	for _, expr := range []string{c.Graph.CommonInclude, c.Graph.TemplateLeafInclude, c.Graph.SqkdExclude} {
		if _, err := Compile(expr); err != nil {
			return err
		}
	}

	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}

	return level, nil
}

// Compile compiles expr. The empty expression yields nil.
func Compile(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil //nolint:nilnil // an unset pattern is not an error.
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, expr, err)
	}

	return re, nil
}

// CompileAll compiles every expression in order, skipping empty ones.
func CompileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))

	for _, expr := range exprs {
		re, err := Compile(expr)
		if err != nil {
			return nil, err
		}

		if re != nil {
			out = append(out, re)
		}
	}

	return out, nil
}
