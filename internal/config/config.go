package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	// Driver selects the durable backend: "postgres" or "sqlite". Empty means
	// no durable store is configured and the in-memory fallback is used.
	Driver           string        `mapstructure:"driver"`
	Path             string        `mapstructure:"path"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	Name             string        `mapstructure:"name"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
	FallbackToMemory bool          `mapstructure:"fallback_to_memory"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	default:
		return c.Path
	}
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type VisionConfig struct {
	// Inference service that runs face detection and embedding extraction.
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	// Dimensions of the embedding vectors the model emits. Records with a
	// different length are rejected at the store boundary.
	Dimensions int `mapstructure:"dimensions"`
	// MatchThreshold is the maximum descriptor distance treated as the same
	// identity.
	MatchThreshold float64 `mapstructure:"match_threshold"`
	// DetectInterval is the detection loop tick period.
	DetectInterval time.Duration `mapstructure:"detect_interval"`
	// DropBusyTicks drops ticks that fire while a prior inference is still in
	// flight instead of queueing them.
	DropBusyTicks bool `mapstructure:"drop_busy_ticks"`
	// StreamURL is the MJPEG camera stream the pipeline samples frames from.
	StreamURL string `mapstructure:"stream_url"`
}

type MapsConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Mode    string `mapstructure:"mode"`
}

type SpeechConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Voice    string `mapstructure:"voice"`
}

type NotifyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/visionassist.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.fallback_to_memory", true)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "face-snapshots")
	v.SetDefault("vision.provider", "faceapi")
	v.SetDefault("vision.base_url", "http://localhost:5000")
	v.SetDefault("vision.dimensions", 128)
	v.SetDefault("vision.match_threshold", 0.6)
	v.SetDefault("vision.detect_interval", 100*time.Millisecond)
	v.SetDefault("vision.drop_busy_ticks", true)
	v.SetDefault("maps.base_url", "https://maps.googleapis.com/maps/api/directions/json")
	v.SetDefault("maps.mode", "walking")
	v.SetDefault("speech.provider", "none")
	v.SetDefault("speech.voice", "en-US")
	v.SetDefault("notify.ttl", 5*time.Second)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("vision.base_url", "VISION_BASE_URL")
	v.BindEnv("vision.api_key", "VISION_API_KEY")
	v.BindEnv("maps.api_key", "MAPS_API_KEY")
	v.BindEnv("speech.api_key", "SPEECH_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
