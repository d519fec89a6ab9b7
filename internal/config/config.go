// Package config loads autohds command settings from defaults, an optional
// TOML file, AUTOHDS_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"strings"

	"github.com/TrevorS/autohds"
	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultFileName is looked up in the working directory when no config file
// is given.
const DefaultFileName = "autohds.toml"

// Settings mirrors the keys of an autohds.toml file.
type Settings struct {
	Neps        int     `mapstructure:"neps"`
	Fshave      float64 `mapstructure:"fshave"`
	Rshave      float64 `mapstructure:"rshave"`
	RuntSize    int     `mapstructure:"runt_size"`
	SingleCut   bool    `mapstructure:"single_cut"`
	Measure     string  `mapstructure:"measure"`
	Matrix      bool    `mapstructure:"matrix"`
	Delimiter   string  `mapstructure:"delimiter"`
	SkipHeader  bool    `mapstructure:"skip_header"`
	ClassColumn int     `mapstructure:"class_column"`
	ClassName   string  `mapstructure:"class_name"`
	Strategy    string  `mapstructure:"strategy"`
	BufferMB    int     `mapstructure:"buffer_mb"`
	Workers     int     `mapstructure:"workers"`
	NoReuse     bool    `mapstructure:"no_reuse"`

	Log LogSettings `mapstructure:"log"`
}

// LogSettings configures command logging.
type LogSettings struct {
	JSON bool `mapstructure:"json"`
}

// SetDefaults registers the engine defaults under their config keys.
func SetDefaults(v *viper.Viper) {
	d := autohds.DefaultConfig()
	v.SetDefault("neps", d.Neps)
	v.SetDefault("fshave", d.Fshave)
	v.SetDefault("rshave", d.Rshave)
	v.SetDefault("runt_size", d.RuntSize)
	v.SetDefault("single_cut", false)
	v.SetDefault("measure", d.Measure.String())
	v.SetDefault("matrix", false)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("skip_header", false)
	v.SetDefault("class_column", d.ClassColumn)
	v.SetDefault("class_name", "")
	v.SetDefault("strategy", string(d.Strategy))
	v.SetDefault("buffer_mb", d.BufferSize/1_000_000)
	v.SetDefault("workers", 0)
	v.SetDefault("no_reuse", false)
	v.SetDefault("log.json", false)
}

// FlagKeys maps command-line flag names to config keys. Flags that are set
// explicitly override every other source.
var FlagKeys = map[string]string{
	"neps":          "neps",
	"fshave":        "fshave",
	"rshave":        "rshave",
	"runt":          "runt_size",
	"single-cut":    "single_cut",
	"measure":       "measure",
	"matrix":        "matrix",
	"delimiter":     "delimiter",
	"skip-header":   "skip_header",
	"class-col-idx": "class_column",
	"class-col":     "class_name",
	"strategy":      "strategy",
	"buffer-mb":     "buffer_mb",
	"workers":       "workers",
	"no-reuse":      "no_reuse",
	"json":          "log.json",
}

// Load reads settings. configFile may be empty, in which case
// DefaultFileName is used if it exists in the working directory. flags may
// be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOHDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", configFile)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".toml"))
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read autohds.toml")
			}
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag --%s", name)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "decode settings")
	}
	return &s, nil
}

// EngineConfig converts the settings into a clustering configuration. The
// result is validated by the engine when it runs.
func (s *Settings) EngineConfig() (autohds.Config, error) {
	measure, err := autohds.ParseMeasure(s.Measure)
	if err != nil {
		return autohds.Config{}, err
	}
	if s.BufferMB < 0 {
		return autohds.Config{}, errors.Mark(errors.Newf("buffer_mb must be >= 0, got %d", s.BufferMB), autohds.ErrInvalidConfig)
	}
	cfg := autohds.DefaultConfig()
	cfg.Neps = s.Neps
	cfg.Fshave = s.Fshave
	cfg.Rshave = s.Rshave
	cfg.RuntSize = s.RuntSize
	cfg.SingleCut = s.SingleCut
	cfg.Measure = measure
	cfg.MatrixInput = s.Matrix
	cfg.Delimiter = s.Delimiter
	cfg.SkipHeader = s.SkipHeader
	cfg.ClassColumn = s.ClassColumn
	cfg.ClassColumnName = s.ClassName
	cfg.Strategy = autohds.Strategy(strings.ToLower(s.Strategy))
	cfg.BufferSize = s.BufferMB * 1_000_000
	cfg.Workers = s.Workers
	cfg.ForceRecompute = s.NoReuse
	return cfg, nil
}
