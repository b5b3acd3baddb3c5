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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CatalogConfig configures the mapping-catalog source.
type CatalogConfig struct {
	SheetID string   `yaml:"sheet_id" mapstructure:"sheet_id"`
	Tabs    []string `yaml:"tabs" mapstructure:"tabs"`
	// File points at a local catalog CSV; when set it replaces the Sheets
	// fetch entirely (offline runs).
	File string `yaml:"file" mapstructure:"file"`
	// RateLimit is the Sheets request rate in requests per second.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// PipelineConfig tunes the reclassification stages.
type PipelineConfig struct {
	HiThreshold              float64  `yaml:"hi_threshold" mapstructure:"hi_threshold"`
	LoThreshold              float64  `yaml:"lo_threshold" mapstructure:"lo_threshold"`
	ContainsConfidence       float64  `yaml:"contains_confidence" mapstructure:"contains_confidence"`
	ProblematicLabels        []string `yaml:"problematic_labels" mapstructure:"problematic_labels"`
	AddressKeywords          []string `yaml:"address_keywords" mapstructure:"address_keywords"`
	IncludeAddressInHaystack bool     `yaml:"include_address_in_haystack" mapstructure:"include_address_in_haystack"`
}

// BatchConfig configures multi-file processing.
type BatchConfig struct {
	MaxConcurrentFiles int `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("MICROCLASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "microclass.db")
	v.SetDefault("catalog.sheet_id", "1egrGImJrXqfvxa7U4QirKrePE7w8QtuOG8Jc_H_AsJE")
	v.SetDefault("catalog.tabs", []string{
		"Alimentação", "Automotivo", "Serviços", "Decoração", "Moda",
		"Educação", "Inst. Financeira", "Saúde e Bem Estar", "Outros",
	})
	v.SetDefault("catalog.rate_limit", 2.0)
	v.SetDefault("pipeline.hi_threshold", 0.90)
	v.SetDefault("pipeline.lo_threshold", 0.70)
	v.SetDefault("pipeline.contains_confidence", 0.92)
	v.SetDefault("pipeline.problematic_labels", []string{})
	v.SetDefault("pipeline.address_keywords", []string{"shopping", "loja", "lj", "quiosque", "box"})
	v.SetDefault("pipeline.include_address_in_haystack", false)
	v.SetDefault("batch.max_concurrent_files", 4)
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks threshold ranges and required knobs.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.HiThreshold <= 0 || p.HiThreshold > 1 {
		return eris.Errorf("config: pipeline.hi_threshold must be in (0, 1], got %v", p.HiThreshold)
	}
	if p.LoThreshold <= 0 || p.LoThreshold > p.HiThreshold {
		return eris.Errorf("config: pipeline.lo_threshold must be in (0, hi_threshold], got %v", p.LoThreshold)
	}
	if p.ContainsConfidence <= 0 || p.ContainsConfidence > 1 {
		return eris.Errorf("config: pipeline.contains_confidence must be in (0, 1], got %v", p.ContainsConfidence)
	}
	if c.Catalog.File == "" && c.Catalog.SheetID == "" {
		return eris.New("config: either catalog.sheet_id or catalog.file must be set")
	}
	if c.Batch.MaxConcurrentFiles <= 0 {
		return eris.Errorf("config: batch.max_concurrent_files must be positive, got %d", c.Batch.MaxConcurrentFiles)
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
