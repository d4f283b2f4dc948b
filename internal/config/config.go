package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen = ":8080"
	defaultTopic  = "camsnap/snapshots"
)

// Config represents the complete configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	// Cameras are kept as untyped records; each is checked when it is added
	// to the camera manager so one bad entry does not reject the file
	Cameras []map[string]any `yaml:"cameras"`
}

// ServerConfig represents the snapshot HTTP server configuration
type ServerConfig struct {
	Listen  string     `yaml:"listen"`
	Metrics bool       `yaml:"metrics"`
	Auth    AuthConfig `yaml:"auth"`
}

// AuthConfig represents authentication credentials
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTConfig represents the capture notification settings.
// An empty broker disables notifications.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration and fills in defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		c.MQTT.Topic = defaultTopic
	}
}
