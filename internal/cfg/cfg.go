package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ModelsDir       string
	ModelName       string
	ListenPort      int
	MetricsPort     int
	TrackingURL     string
	TrackingTimeout time.Duration
	DataPath        string
	LogLevel        string
	HTTPTimeout     time.Duration
}

type ConfigFile struct {
	Models struct {
		Dir  string `yaml:"dir"`
		Name string `yaml:"name"`
	} `yaml:"models"`

	Registry struct {
		TrackingURL     string `yaml:"trackingURL"`
		TrackingTimeout string `yaml:"trackingTimeout"`
		DataPath        string `yaml:"dataPath"`
	} `yaml:"registry"`

	Server struct {
		ListenPort  int    `yaml:"listenPort"`
		MetricsPort int    `yaml:"metricsPort"`
		HTTPTimeout string `yaml:"httpTimeout"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"server"`
}

func Load() (Settings, error) {
	// Optional .env for local development
	_ = godotenv.Load()

	// Try to load from YAML file first
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	trackingTimeout, err := time.ParseDuration(config.Registry.TrackingTimeout)
	if err != nil {
		trackingTimeout = 5 * time.Second
	}

	httpTimeout, err := time.ParseDuration(config.Server.HTTPTimeout)
	if err != nil {
		httpTimeout = 10 * time.Second
	}

	settings := Settings{
		ModelsDir:       getEnvOrDefault("MODELS_DIR", config.Models.Dir),
		ModelName:       getEnvOrDefault("MODEL_NAME", config.Models.Name),
		ListenPort:      getIntFromEnvOrConfig("LISTEN_PORT", config.Server.ListenPort),
		MetricsPort:     getIntFromEnvOrConfig("METRICS_PORT", config.Server.MetricsPort),
		TrackingURL:     getEnvOrDefault("TRACKING_URL", config.Registry.TrackingURL),
		TrackingTimeout: trackingTimeout,
		DataPath:        getEnvOrDefault("DATA_PATH", config.Registry.DataPath),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", config.Server.LogLevel),
		HTTPTimeout:     httpTimeout,
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelsDir:       getEnvOrDefault("MODELS_DIR", "models"),
		ModelName:       getEnvOrDefault("MODEL_NAME", "meps-utilization"),
		ListenPort:      getIntOrDefault("LISTEN_PORT", 8001),
		MetricsPort:     getIntOrDefault("METRICS_PORT", 9090),
		TrackingURL:     os.Getenv("TRACKING_URL"), // optional; empty means local store
		TrackingTimeout: getDurationOrDefault("TRACKING_TIMEOUT", 5*time.Second),
		DataPath:        os.Getenv("DATA_PATH"), // optional
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPTimeout:     getDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.ModelsDir == "" {
		s.ModelsDir = "models"
	}
	if s.ModelName == "" {
		s.ModelName = "meps-utilization"
	}
	if s.ListenPort == 0 {
		s.ListenPort = 8001
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = 9090
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ModelsDir == "" {
		return fmt.Errorf("models directory cannot be empty")
	}
	if settings.ModelName == "" {
		return fmt.Errorf("model name cannot be empty")
	}

	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("listen port and metrics port must differ, both are %d", settings.ListenPort)
	}

	if settings.TrackingTimeout < time.Second || settings.TrackingTimeout > time.Minute {
		return fmt.Errorf("tracking timeout must be between 1s and 1m, got %v", settings.TrackingTimeout)
	}
	if settings.HTTPTimeout < time.Second || settings.HTTPTimeout > time.Minute {
		return fmt.Errorf("HTTP timeout must be between 1s and 1m, got %v", settings.HTTPTimeout)
	}

	switch settings.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", settings.LogLevel)
	}

	return nil
}
