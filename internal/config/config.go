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
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Sheets SheetsConfig `yaml:"sheets" mapstructure:"sheets"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the sqlite results database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ImportConfig configures the tour results importer.
type ImportConfig struct {
	SeasonNumber      int    `yaml:"season_number" mapstructure:"season_number"`
	ExpectedQuestions int    `yaml:"expected_questions" mapstructure:"expected_questions"`
	DataRoot          string `yaml:"data_root" mapstructure:"data_root"`
	ManifestPath      string `yaml:"manifest_path" mapstructure:"manifest_path"`
	RosterPath        string `yaml:"roster_path" mapstructure:"roster_path"`
	ClashesPath       string `yaml:"clashes_path" mapstructure:"clashes_path"`
	Source            string `yaml:"source" mapstructure:"source"`
}

// SheetsConfig configures the Google Sheets snapshot client.
type SheetsConfig struct {
	SpreadsheetID string  `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
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
	v.SetEnvPrefix("PANENKA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "results.sqlite3")
	v.SetDefault("import.season_number", 2)
	v.SetDefault("import.expected_questions", 5)
	v.SetDefault("import.data_root", "data/raw/season02/csv")
	v.SetDefault("import.manifest_path", "data/raw/season02/manifest.json")
	v.SetDefault("import.source", "season02_csv_snapshot")
	v.SetDefault("sheets.spreadsheet_id", "1XtnUV3toMG4PjbJv9a-uU-IP9ICzJh7I_7zi_COysVY")
	v.SetDefault("sheets.user_agent", "Mozilla/5.0 (compatible; PanenkaResultsImporter/1.0)")
	v.SetDefault("sheets.rate_per_sec", 1.0)
	v.SetDefault("sheets.timeout_secs", 30)
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
