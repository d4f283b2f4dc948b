package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if len(c.Cameras) == 0 {
		return fmt.Errorf("at least one camera must be configured")
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if _, port, err := net.SplitHostPort(s.Listen); err != nil || port == "" {
		return fmt.Errorf("invalid listen address: %q", s.Listen)
	}

	if (s.Auth.Username == "") != (s.Auth.Password == "") {
		return fmt.Errorf("auth.username and auth.password must be set together")
	}

	return nil
}

// mqttSchemes are the broker URL schemes the paho client dials
var mqttSchemes = []string{"tcp://", "ssl://", "tls://", "mqtt://", "mqtts://", "ws://", "wss://"}

// Validate validates MQTT configuration
func (m *MQTTConfig) Validate() error {
	// Empty broker means notifications are disabled
	if m.Broker == "" {
		return nil
	}

	valid := false
	for _, scheme := range mqttSchemes {
		if strings.HasPrefix(m.Broker, scheme) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("broker must start with one of %s", strings.Join(mqttSchemes, ", "))
	}

	if strings.ContainsAny(m.Topic, "#+") {
		return fmt.Errorf("topic must not contain wildcards: %s", m.Topic)
	}

	return nil
}
