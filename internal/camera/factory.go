package camera

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Constructor builds a camera of one type from its configuration
type Constructor func(cfg Config) (Camera, error)

// Factory creates cameras through constructors registered per type
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	sniffer      Sniffer
	logger       Logger
}

// NewFactory creates a factory with the http and hikvision types registered.
// A nil logger discards messages.
func NewFactory(logger Logger) *Factory {
	if logger == nil {
		logger = discardLogger()
	}

	f := &Factory{
		constructors: make(map[string]Constructor),
		sniffer:      MimeSniffer{},
		logger:       logger,
	}

	f.RegisterCameraType(TypeHTTPSnapshot, func(cfg Config) (Camera, error) {
		cam, err := NewHTTPSnapshotCamera(cfg, f.Sniffer(), f.logger)
		if err != nil {
			return nil, err
		}
		return cam, nil
	})

	f.RegisterCameraType(TypeHikvision, func(cfg Config) (Camera, error) {
		cam, err := NewHikvisionCamera(cfg, f.Sniffer(), f.logger)
		if err != nil {
			return nil, err
		}
		return cam, nil
	})

	return f
}

// RegisterCameraType stores ctor under the lowercased type, replacing any
// previous registration
func (f *Factory) RegisterCameraType(cameraType string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[strings.ToLower(cameraType)] = ctor
}

// Types returns the registered type keys, sorted
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.constructors))
	for t := range f.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// SetSniffer replaces the content sniffer used by the built-in types for
// cameras created afterwards. With a nil sniffer responses are validated
// by their Content-Type header only.
func (f *Factory) SetSniffer(s Sniffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sniffer = s
}

// Sniffer returns the content sniffer handed to the built-in types
func (f *Factory) Sniffer() Sniffer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sniffer
}

// CreateCamera validates cfg, builds the camera with the constructor
// registered for cfg.Type and attaches the credentials. Every failure is a
// *ConfigurationError.
func (f *Factory) CreateCamera(cfg Config) (Camera, error) {
	required := []struct {
		name  string
		value string
	}{
		{"id", cfg.ID},
		{"type", cfg.Type},
		{"brand", cfg.Brand},
		{"host", cfg.Host},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return nil, &ConfigurationError{CameraID: cfg.ID, Field: field.name, Reason: "is required"}
		}
	}

	f.mu.RLock()
	ctor, ok := f.constructors[strings.ToLower(cfg.Type)]
	f.mu.RUnlock()
	if !ok {
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "type", Reason: fmt.Sprintf("unsupported camera type %q", cfg.Type)}
	}

	if cfg.Options == nil {
		cfg.Options = Options{}
	}

	cam, err := ctor(cfg)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "type", Reason: fmt.Sprintf("failed to create %s camera", cfg.Type), Err: err}
	}
	if isNil(cam) {
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "type", Reason: fmt.Sprintf("constructor for %q returned no camera", cfg.Type)}
	}

	switch {
	case cfg.Username != "" && cfg.Password != "":
		cam.SetCredentials(cfg.Username, cfg.Password)
	case cfg.Username != "" || cfg.Password != "":
		return nil, &ConfigurationError{CameraID: cfg.ID, Field: "username/password", Reason: "both must be provided together"}
	}

	return cam, nil
}

// isNil also catches a nil pointer wrapped in a non-nil interface
func isNil(cam Camera) bool {
	if cam == nil {
		return true
	}
	v := reflect.ValueOf(cam)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
