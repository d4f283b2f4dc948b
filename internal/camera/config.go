package camera

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Option keys understood by the built-in camera types
const (
	OptionSnapshotURLPath = "snapshotUrlPath"
	OptionSnapshotChannel = "snapshotChannel"
	OptionConnectTimeout  = "connectTimeout"
	OptionTimeout         = "timeout"
	OptionVerifySSL       = "verifySsl"
)

const (
	// DefaultConnectTimeout bounds dialing and the TLS handshake
	DefaultConnectTimeout = 5 * time.Second
	// DefaultTimeout bounds a whole snapshot request
	DefaultTimeout = 10 * time.Second
)

// Config is the configuration record a camera is created from
type Config struct {
	ID       string  `yaml:"id" json:"id"`
	Type     string  `yaml:"type" json:"type"`
	Brand    string  `yaml:"brand" json:"brand"`
	Model    string  `yaml:"model,omitempty" json:"model,omitempty"`
	Host     string  `yaml:"host" json:"host"`
	Protocol string  `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Username string  `yaml:"username,omitempty" json:"username,omitempty"`
	Password string  `yaml:"password,omitempty" json:"password,omitempty"`
	Options  Options `yaml:"options,omitempty" json:"options,omitempty"`
}

// Options holds type-specific settings keyed by option name
type Options map[string]any

// String returns the option as a string. Numbers are formatted, a missing
// key yields "".
func (o Options) String(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return "", nil
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("option %s: expected a string, got %T", key, v)
	}
}

// Duration returns the option as a duration. Plain numbers are seconds,
// strings may be numbers or Go durations ("750ms").
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}

	var d time.Duration
	switch val := v.(type) {
	case int:
		d = time.Duration(val) * time.Second
	case int64:
		d = time.Duration(val) * time.Second
	case uint64:
		d = time.Duration(val) * time.Second
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("option %s: invalid duration %v", key, val)
		}
		d = time.Duration(val * float64(time.Second))
	case time.Duration:
		d = val
	case string:
		s := strings.TrimSpace(val)
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			d = time.Duration(secs * float64(time.Second))
		} else {
			parsed, err := time.ParseDuration(s)
			if err != nil {
				return 0, fmt.Errorf("option %s: %w", key, err)
			}
			d = parsed
		}
	default:
		return 0, fmt.Errorf("option %s: expected seconds or a duration, got %T", key, v)
	}

	if d <= 0 {
		return 0, fmt.Errorf("option %s: duration must be positive", key)
	}
	return d, nil
}

// Bool returns the option as a bool, accepting "true"/"false" strings
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("option %s: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("option %s: expected a bool, got %T", key, v)
	}
}

// ParseConfig converts an untyped record, as decoded from YAML or JSON,
// into a Config.
func ParseConfig(raw map[string]any) (Config, error) {
	var cfg Config

	id, err := stringField(raw, "id")
	if err != nil {
		return cfg, &ConfigurationError{Field: "id", Reason: err.Error()}
	}
	cfg.ID = id

	fields := []struct {
		name string
		dst  *string
	}{
		{"type", &cfg.Type},
		{"brand", &cfg.Brand},
		{"model", &cfg.Model},
		{"host", &cfg.Host},
		{"protocol", &cfg.Protocol},
		{"username", &cfg.Username},
		{"password", &cfg.Password},
	}
	for _, f := range fields {
		v, err := stringField(raw, f.name)
		if err != nil {
			return cfg, &ConfigurationError{CameraID: id, Field: f.name, Reason: err.Error()}
		}
		*f.dst = v
	}

	switch opts := raw["options"].(type) {
	case nil:
		cfg.Options = Options{}
	case map[string]any:
		cfg.Options = Options(opts)
	case Options:
		cfg.Options = opts
	case map[any]any:
		cfg.Options = make(Options, len(opts))
		for k, v := range opts {
			key, ok := k.(string)
			if !ok {
				return cfg, &ConfigurationError{CameraID: id, Field: "options", Reason: fmt.Sprintf("key %v is not a string", k)}
			}
			cfg.Options[key] = v
		}
	default:
		return cfg, &ConfigurationError{CameraID: id, Field: "options", Reason: fmt.Sprintf("must be a mapping, got %T", opts)}
	}

	return cfg, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("must be a string, got %T", v)
	}
	return s, nil
}
