package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the CLI-facing configuration: everything EngineConfig needs
// plus I/O and server settings, loaded from a YAML file, GENEX_-prefixed
// environment variables, and command-line flags, in that increasing order
// of precedence. EngineConfig is squashed into the same flat key space as
// the CLI flags (rather than nested under an "engine" key) so a command's
// own pflag.FlagSet binds onto it directly: flag name "threshold" and
// viper/mapstructure key "threshold" are the same string throughout.
type Config struct {
	Engine EngineConfig `mapstructure:",squash"`

	DatasetPath string `mapstructure:"dataset"`
	IndexPath   string `mapstructure:"out"`
	LegacyText  bool   `mapstructure:"legacy-text"`

	ServeAddr string `mapstructure:"addr"`
	Verbose   bool   `mapstructure:"verbose"`
}

// DefaultConfig returns the configuration used when no file, environment,
// or flag override is present.
func DefaultConfig() Config {
	return Config{
		Engine:     DefaultEngineConfig(),
		IndexPath:  "genex.index",
		LegacyText: false,
		ServeAddr:  ":8080",
		Verbose:    false,
	}
}

// Load builds a viper instance seeded with defaults, then layers in an
// optional config file, GENEX_-prefixed environment variables, and
// finally flags (a changed flag always wins over file/env/default; an
// unchanged one falls through to whichever of those set it), and decodes
// the result into a Config. flags may be nil for non-command-line callers.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	applyDefaults(v, DefaultConfig())

	v.SetEnvPrefix("GENEX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("config: read %s: %w", configFile, err)
			}
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper, defaults Config) {
	v.SetDefault("band-ratio", defaults.Engine.WarpingBandRatio)
	v.SetDefault("distance", defaults.Engine.Distance)
	v.SetDefault("threshold", defaults.Engine.Threshold)
	v.SetDefault("threads", defaults.Engine.NumThreads)
	v.SetDefault("k", defaults.Engine.K)
	v.SetDefault("h", defaults.Engine.H)
	v.SetDefault("dataset", defaults.DatasetPath)
	v.SetDefault("out", defaults.IndexPath)
	v.SetDefault("legacy-text", defaults.LegacyText)
	v.SetDefault("addr", defaults.ServeAddr)
	v.SetDefault("verbose", defaults.Verbose)
}

// Validate checks the whole config, including the embedded EngineConfig.
func (c Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.ServeAddr == "" {
		return fmt.Errorf("config: addr must not be empty")
	}
	return nil
}

// GenerateTemplate writes a commented YAML template of the default
// configuration to path, for `genex config init`.
func GenerateTemplate(path string) error {
	const template = `# GENEX engine configuration.
band-ratio: 0.1    # Sakoe-Chiba band as a fraction of sequence length; 0 disables warping
distance: euclidean # registered metric name, optionally suffixed _dtw
threshold: 1.0      # a subsequence joins a cluster within threshold/2 of its centroid
threads: 0          # 0 lets the worker pool choose
k: 10               # default k-best result count
h: 20               # default total candidate examine budget (must be >= k)

dataset: ""
out: genex.index
legacy-text: false
addr: ":8080"
verbose: false
`
	return os.WriteFile(path, []byte(template), 0o644)
}
