package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// EngineConfig holds the tuning thresholds for progress analysis,
// recommendation rules and auto-adjustment. The defaults are reasonable
// starting points, not contractual values; ops can override any of them.
type EngineConfig struct {
	MinSamples          int     `mapstructure:"min_samples"`
	WindowSize          int     `mapstructure:"window_size"`
	TrendDelta          float64 `mapstructure:"trend_delta"`
	PlateauEpsilon      float64 `mapstructure:"plateau_epsilon"`
	AdherenceWeeks      int     `mapstructure:"adherence_weeks"`
	HighFormScore       float64 `mapstructure:"high_form_score"`
	LowFormScore        float64 `mapstructure:"low_form_score"`
	ProgressionAccuracy float64 `mapstructure:"progression_accuracy"`
	AdherenceConcern    float64 `mapstructure:"adherence_concern"`
	RepsStep            int     `mapstructure:"reps_step"`
	AutoApplyThreshold  float64 `mapstructure:"auto_apply_threshold"`
	MaxRepsIncrease     int     `mapstructure:"max_reps_increase"`
	MaxRepsReduction    int     `mapstructure:"max_reps_reduction"`
	MaxSetsIncrease     int     `mapstructure:"max_sets_increase"`
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.pretty", false)

	viper.SetDefault("engine.min_samples", 3)
	viper.SetDefault("engine.window_size", 3)
	viper.SetDefault("engine.trend_delta", 5)
	viper.SetDefault("engine.plateau_epsilon", 4)
	viper.SetDefault("engine.adherence_weeks", 4)
	viper.SetDefault("engine.high_form_score", 85)
	viper.SetDefault("engine.low_form_score", 60)
	viper.SetDefault("engine.progression_accuracy", 90)
	viper.SetDefault("engine.adherence_concern", 0.5)
	viper.SetDefault("engine.reps_step", 2)
	viper.SetDefault("engine.auto_apply_threshold", 0.7)
	viper.SetDefault("engine.max_reps_increase", 3)
	viper.SetDefault("engine.max_reps_reduction", 3)
	viper.SetDefault("engine.max_sets_increase", 1)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
