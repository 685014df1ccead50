package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Auth struct {
		JWTSecret string `koanf:"jwt_secret"`
	} `koanf:"auth"`

	Engine struct {
		URL               string  `koanf:"url"`
		Token             string  `koanf:"token"`
		RequestsPerSecond float64 `koanf:"requests_per_second"`
		TimeoutSeconds    int     `koanf:"timeout_seconds"`
	} `koanf:"engine"`

	Queue struct {
		MaxWorkers        int `koanf:"max_workers"`
		MaxAttempts       int `koanf:"max_attempts"`
		JobTimeoutSeconds int `koanf:"job_timeout_seconds"`
	} `koanf:"queue"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":                8890,
		"engine.requests_per_second": 2.0,
		"engine.timeout_seconds":     120,
		"queue.max_workers":          4,
		"queue.max_attempts":         3,
		"queue.job_timeout_seconds":  300,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations - prioritize rsdata directory for containerized environments
		defaultPaths := []string{"./rsdata/reviewspace.toml", "./reviewspace.toml", "$HOME/.reviewspace.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix REVIEWSPACE_
	k.Load(env.Provider("REVIEWSPACE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(s), "_", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# ReviewSpace Configuration

[server]
port = 8890

[auth]
jwt_secret = "change-me"

[engine]
url = "http://localhost:9100"
token = "change-me"
requests_per_second = 2.0
timeout_seconds = 120

[queue]
max_workers = 4
max_attempts = 3
job_timeout_seconds = 300
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}
	if config.Engine.URL == "" {
		return fmt.Errorf("engine url is required")
	}
	if config.Engine.Token == "" {
		return fmt.Errorf("engine token is required")
	}
	return nil
}
