package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	RedisURL  string
	JWTSecret string

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration

	LogLevel  string
	LogFormat string

	RateLimitPerMinute int

	// AchievementCatalogPath points at a JSON catalog; empty uses the embedded one
	AchievementCatalogPath string

	Exploration Exploration
}

// Exploration holds the options recognised by the exploration core
type Exploration struct {
	TrackingDistanceMeters  float64       `json:"trackingDistanceMeters"`
	ExplorationRadiusMeters float64       `json:"explorationRadiusMeters"`
	AccuracyThresholdMeters float64       `json:"accuracyThresholdMeters"`
	ClusteringRadiusMeters  float64       `json:"clusteringRadiusMeters"` // 0 means exploration radius / 2
	MaxRegionsInMemory      int           `json:"maxRegionsInMemory"`
	PercentageDecimalPlaces int           `json:"percentageDecimalPlaces"`
	AutoEnrichNewRegions    bool          `json:"autoEnrichNewRegions"`
	MinFixInterval          time.Duration `json:"minFixInterval"`
}

// Defaults
const (
	DefaultTrackingDistanceMeters  = 50.0
	DefaultExplorationRadiusMeters = 150.0
	DefaultAccuracyThresholdMeters = 50.0
	DefaultMaxRegionsInMemory      = 1000
	DefaultPercentageDecimalPlaces = 6
	DefaultMinFixInterval          = 5 * time.Second
)

// DefaultExploration returns the default exploration settings
func DefaultExploration() Exploration {
	e := Exploration{AutoEnrichNewRegions: true}
	e.Normalize()
	return e
}

// Normalize replaces unset or invalid values with defaults and derives the
// clustering radius from the exploration radius when it is not set
func (e *Exploration) Normalize() {
	if e.TrackingDistanceMeters <= 0 {
		e.TrackingDistanceMeters = DefaultTrackingDistanceMeters
	}
	if e.ExplorationRadiusMeters <= 0 {
		e.ExplorationRadiusMeters = DefaultExplorationRadiusMeters
	}
	if e.AccuracyThresholdMeters <= 0 {
		e.AccuracyThresholdMeters = DefaultAccuracyThresholdMeters
	}
	if e.ClusteringRadiusMeters <= 0 {
		e.ClusteringRadiusMeters = e.ExplorationRadiusMeters / 2
	}
	if e.MaxRegionsInMemory <= 0 {
		e.MaxRegionsInMemory = DefaultMaxRegionsInMemory
	}
	if e.PercentageDecimalPlaces < 0 || e.PercentageDecimalPlaces > 15 {
		e.PercentageDecimalPlaces = DefaultPercentageDecimalPlaces
	}
	if e.MinFixInterval <= 0 {
		e.MinFixInterval = DefaultMinFixInterval
	}
}

// Load 加载配置: .env (optional) -> CONFIG_FILE (optional) -> environment
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// Environment variables take precedence over the config file
	v.AutomaticEnv()

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_PATH", "./data/roqua/roqua.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "roqua-core/1.0")
	v.SetDefault("GEOCODER_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 600)
	v.SetDefault("ACHIEVEMENT_CATALOG_PATH", "")

	v.SetDefault("TRACKING_DISTANCE_METERS", DefaultTrackingDistanceMeters)
	v.SetDefault("EXPLORATION_RADIUS_METERS", DefaultExplorationRadiusMeters)
	v.SetDefault("ACCURACY_THRESHOLD_METERS", DefaultAccuracyThresholdMeters)
	v.SetDefault("CLUSTERING_RADIUS_METERS", 0)
	v.SetDefault("MAX_REGIONS_IN_MEMORY", DefaultMaxRegionsInMemory)
	v.SetDefault("PERCENTAGE_DECIMAL_PLACES", DefaultPercentageDecimalPlaces)
	v.SetDefault("AUTO_ENRICH_NEW_REGIONS", true)
	v.SetDefault("MIN_FIX_INTERVAL", DefaultMinFixInterval.String())
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:                   v.GetString("PORT"),
		DBPath:                 v.GetString("DB_PATH"),
		RedisURL:               v.GetString("REDIS_URL"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		GeocoderURL:            v.GetString("GEOCODER_URL"),
		GeocoderUserAgent:      v.GetString("GEOCODER_USER_AGENT"),
		GeocoderTimeout:        v.GetDuration("GEOCODER_TIMEOUT"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		LogFormat:              v.GetString("LOG_FORMAT"),
		RateLimitPerMinute:     v.GetInt("RATE_LIMIT_PER_MINUTE"),
		AchievementCatalogPath: v.GetString("ACHIEVEMENT_CATALOG_PATH"),
		Exploration: Exploration{
			TrackingDistanceMeters:  v.GetFloat64("TRACKING_DISTANCE_METERS"),
			ExplorationRadiusMeters: v.GetFloat64("EXPLORATION_RADIUS_METERS"),
			AccuracyThresholdMeters: v.GetFloat64("ACCURACY_THRESHOLD_METERS"),
			ClusteringRadiusMeters:  v.GetFloat64("CLUSTERING_RADIUS_METERS"),
			MaxRegionsInMemory:      v.GetInt("MAX_REGIONS_IN_MEMORY"),
			PercentageDecimalPlaces: v.GetInt("PERCENTAGE_DECIMAL_PLACES"),
			AutoEnrichNewRegions:    v.GetBool("AUTO_ENRICH_NEW_REGIONS"),
			MinFixInterval:          v.GetDuration("MIN_FIX_INTERVAL"),
		},
	}
	if cfg.GeocoderTimeout <= 0 {
		cfg.GeocoderTimeout = 10 * time.Second
	}
	cfg.Exploration.Normalize()
	return cfg
}
