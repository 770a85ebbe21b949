// Package config loads application configuration from file and
// environment and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Shapefile   ShapefileConfig   `yaml:"shapefile" mapstructure:"shapefile"`
	GeoCuritiba GeoCuritibaConfig `yaml:"geocuritiba" mapstructure:"geocuritiba"`
	Geocode     GeocodeConfig     `yaml:"geocode" mapstructure:"geocode"`
	Compliance  ComplianceConfig  `yaml:"compliance" mapstructure:"compliance"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ShapefileConfig points at the municipal zoning shapefile.
type ShapefileConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GeoCuritibaConfig configures the municipal API client.
type GeoCuritibaConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	MaxAttempts   int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// GeocodeConfig configures the geocoding cascade.
type GeocodeConfig struct {
	NominatimURL string  `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	PhotonURL    string  `yaml:"photon_url" mapstructure:"photon_url"`
	ViaCEPURL    string  `yaml:"viacep_url" mapstructure:"viacep_url"`
	NominatimRPS float64 `yaml:"nominatim_rps" mapstructure:"nominatim_rps"`
}

// ComplianceConfig configures the parameter table. An empty path means
// the embedded table.
type ComplianceConfig struct {
	ParamsPath string `yaml:"params_path" mapstructure:"params_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ZONECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "zonecheck.db")
	v.SetDefault("shapefile.path", "")
	v.SetDefault("geocuritiba.base_url", "https://geocuritiba.ippuc.org.br/server/rest/services/GeoCuritiba/Publico_GeoCuritiba_MapaCadastral/MapServer")
	v.SetDefault("geocuritiba.cache_ttl_hours", 24)
	v.SetDefault("geocuritiba.max_attempts", 3)
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.photon_url", "https://photon.komoot.io")
	v.SetDefault("geocode.viacep_url", "https://viacep.com.br")
	v.SetDefault("geocode.nominatim_rps", 1.0)
	v.SetDefault("compliance.params_path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a given run mode depends on. Modes:
// "resolve" and "check" need only the defaults, "serve" additionally
// needs a listen port.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.GeoCuritiba.MaxAttempts < 1 || c.GeoCuritiba.MaxAttempts > 10 {
		problems = append(problems, "geocuritiba.max_attempts must be between 1 and 10")
	}
	if c.Geocode.NominatimRPS <= 0 {
		problems = append(problems, "geocode.nominatim_rps must be > 0")
	}

	switch mode {
	case "resolve", "check", "zones":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
