package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, populated from the environment.
// Defaults target local development.
type Config struct {
	LogLevel  string `env:"SOLARFLOW_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"SOLARFLOW_LOG_PRETTY" envDefault:"true"`

	DataDir string `env:"SOLARFLOW_DATA_DIR" envDefault:"~/.solarflow"`

	Model       ModelConfig       `envPrefix:"SOLARFLOW_MODEL_"`
	VectorStore VectorStoreConfig `envPrefix:"SOLARFLOW_VECTORSTORE_"`
	Weather     WeatherConfig     `envPrefix:"SOLARFLOW_WEATHER_"`
	Memory      MemoryConfig      `envPrefix:"SOLARFLOW_MEMORY_"`
}

// ModelConfig configures the model collaborator client. PoolSize > 0 puts
// a worker pool with that concurrency bound in front of the client, for
// deployments serving concurrent sessions; 0 keeps the bare client.
type ModelConfig struct {
	BaseURL     string        `env:"URL" envDefault:"http://localhost:11434"`
	Name        string        `env:"NAME" envDefault:"llama3.1:8b"`
	ContextSize int           `env:"CONTEXT_SIZE" envDefault:"16384"`
	Temperature float64       `env:"TEMPERATURE" envDefault:"0.4"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10m"`
	PoolSize    int           `env:"POOL" envDefault:"0"`
}

// VectorStoreConfig configures the vector-store collaborator client. An
// empty URL disables retrieval.
type VectorStoreConfig struct {
	BaseURL string        `env:"URL" envDefault:"http://localhost:8001"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// WeatherConfig configures the weather collaborator client. An empty URL
// disables weather enrichment.
type WeatherConfig struct {
	BaseURL         string        `env:"URL" envDefault:"https://api.open-meteo.com"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"10s"`
	RequestsPerHour int           `env:"REQUESTS_PER_HOUR" envDefault:"600"`
}

// MemoryConfig selects and configures the memory store backend.
type MemoryConfig struct {
	Backend       string `env:"BACKEND" envDefault:"badger"` // badger or redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	switch cfg.Memory.Backend {
	case "badger", "redis":
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Memory.Backend)
	}
	return cfg, nil
}
