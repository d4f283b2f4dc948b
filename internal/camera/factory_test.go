package camera

import (
	"context"
	"errors"
	"testing"
)

func hikvisionConfig(id string) Config {
	return Config{
		ID:    id,
		Type:  "hikvision",
		Brand: "Hikvision",
		Model: "DS-2CD2143G2",
		Host:  "192.168.1.64",
		Options: Options{
			OptionSnapshotChannel: "101",
		},
	}
}

func isConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

func TestCreateCameraRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing id", func(c *Config) { c.ID = "" }},
		{"missing type", func(c *Config) { c.Type = "" }},
		{"missing brand", func(c *Config) { c.Brand = "" }},
		{"missing host", func(c *Config) { c.Host = "" }},
		{"blank host", func(c *Config) { c.Host = "   " }},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := hikvisionConfig("cam1")
			tt.mutate(&cfg)
			cam, err := f.CreateCamera(cfg)
			if !isConfigurationError(err) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cam != nil {
				t.Fatalf("expected no camera, got %v", cam)
			}
		})
	}
}

func TestCreateCameraBuiltinTypes(t *testing.T) {
	f := NewFactory(nil)

	cam, err := f.CreateCamera(hikvisionConfig("cam1"))
	if err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	hik, ok := cam.(*HikvisionCamera)
	if !ok {
		t.Fatalf("expected *HikvisionCamera, got %T", cam)
	}
	if got, want := hik.URL(), "http://192.168.1.64/ISAPI/Streaming/channels/101/picture"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
	if cam.Brand() != "Hikvision" || cam.Model() != "DS-2CD2143G2" || cam.Host() != "192.168.1.64" {
		t.Errorf("unexpected profile: %s %s %s", cam.Brand(), cam.Model(), cam.Host())
	}

	cam, err = f.CreateCamera(Config{
		ID:      "cam2",
		Type:    "HTTP",
		Brand:   "Generic",
		Host:    "10.0.0.5:8080",
		Options: Options{OptionSnapshotURLPath: "/snapshot.jpg"},
	})
	if err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	snap, ok := cam.(*HTTPSnapshotCamera)
	if !ok {
		t.Fatalf("expected *HTTPSnapshotCamera, got %T", cam)
	}
	if got, want := snap.URL(), "http://10.0.0.5:8080/snapshot.jpg"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestCreateCameraProtocol(t *testing.T) {
	f := NewFactory(nil)

	cfg := hikvisionConfig("cam1")
	cfg.Protocol = "HTTPS"
	cam, err := f.CreateCamera(cfg)
	if err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	if got, want := cam.(*HikvisionCamera).URL(), "https://192.168.1.64/ISAPI/Streaming/channels/101/picture"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}

	cfg.Protocol = "rtsp"
	if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
		t.Fatalf("expected ConfigurationError for rtsp, got %v", err)
	}

	// A host carrying its own scheme is used as-is by http cameras
	cam, err = f.CreateCamera(Config{
		ID:       "cam2",
		Type:     "http",
		Brand:    "Generic",
		Host:     "https://cam.local",
		Protocol: "http",
		Options:  Options{OptionSnapshotURLPath: "/still"},
	})
	if err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	if got, want := cam.(*HTTPSnapshotCamera).URL(), "https://cam.local/still"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestCreateCameraUnregisteredType(t *testing.T) {
	f := NewFactory(nil)
	cfg := Config{
		ID:      "axis1",
		Type:    "axis",
		Brand:   "Axis",
		Host:    "192.168.1.90",
		Options: Options{},
	}

	if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
		t.Fatalf("expected ConfigurationError before registration, got %v", err)
	}

	f.RegisterCameraType("Axis", func(cfg Config) (Camera, error) {
		cfg.Options[OptionSnapshotURLPath] = "/axis-cgi/jpg/image.cgi"
		cam, err := NewHTTPSnapshotCamera(cfg, f.Sniffer(), nil)
		if err != nil {
			return nil, err
		}
		return cam, nil
	})

	cam, err := f.CreateCamera(cfg)
	if err != nil {
		t.Fatalf("CreateCamera after registration: %v", err)
	}
	if got, want := cam.(*HTTPSnapshotCamera).URL(), "http://192.168.1.90/axis-cgi/jpg/image.cgi"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}

	types := f.Types()
	want := []string{"axis", "hikvision", "http"}
	if len(types) != len(want) {
		t.Fatalf("Types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("Types = %v, want %v", types, want)
		}
	}
}

func TestCreateCameraReplacesRegistration(t *testing.T) {
	f := NewFactory(nil)
	called := false
	f.RegisterCameraType("HIKVISION", func(cfg Config) (Camera, error) {
		called = true
		return NewHikvisionCamera(cfg, nil, nil)
	})

	if _, err := f.CreateCamera(hikvisionConfig("cam1")); err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	if !called {
		t.Fatal("replacement constructor was not used")
	}
}

func TestCreateCameraMissingTypeOptions(t *testing.T) {
	f := NewFactory(nil)

	cfg := hikvisionConfig("cam1")
	cfg.Options = nil
	if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
		t.Fatalf("hikvision without snapshotChannel: expected ConfigurationError, got %v", err)
	}

	cfg = Config{ID: "cam2", Type: "http", Brand: "Generic", Host: "10.0.0.5"}
	if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
		t.Fatalf("http without snapshotUrlPath: expected ConfigurationError, got %v", err)
	}

	cfg.Options = Options{OptionSnapshotURLPath: ""}
	if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
		t.Fatalf("http with empty snapshotUrlPath: expected ConfigurationError, got %v", err)
	}
}

func TestCreateCameraInvalidCommonOptions(t *testing.T) {
	f := NewFactory(nil)
	for _, opts := range []Options{
		{OptionTimeout: "soon"},
		{OptionConnectTimeout: -1},
		{OptionVerifySSL: "maybe"},
		{OptionVerifySSL: 3},
	} {
		cfg := hikvisionConfig("cam1")
		for k, v := range opts {
			cfg.Options[k] = v
		}
		if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
			t.Errorf("options %v: expected ConfigurationError, got %v", opts, err)
		}
	}
}

func TestCreateCameraCredentials(t *testing.T) {
	f := NewFactory(nil)

	cfg := hikvisionConfig("cam1")
	cfg.Username = "admin"
	if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
		t.Fatalf("username only: expected ConfigurationError, got %v", err)
	}

	cfg = hikvisionConfig("cam1")
	cfg.Password = "secret"
	if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
		t.Fatalf("password only: expected ConfigurationError, got %v", err)
	}

	var got [2]string
	f.RegisterCameraType("recorder", func(cfg Config) (Camera, error) {
		p, err := NewProfile(cfg)
		if err != nil {
			return nil, err
		}
		return &credentialRecorder{Profile: p, creds: &got}, nil
	})
	cfg = Config{ID: "rec", Type: "recorder", Brand: "Test", Host: "h", Username: "admin", Password: "secret"}
	if _, err := f.CreateCamera(cfg); err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	if got != [2]string{"admin", "secret"} {
		t.Fatalf("credentials = %v", got)
	}
}

func TestCreateCameraConstructorFailures(t *testing.T) {
	f := NewFactory(nil)
	f.RegisterCameraType("nil", func(cfg Config) (Camera, error) { return nil, nil })
	f.RegisterCameraType("broken", func(cfg Config) (Camera, error) { return nil, errors.New("boom") })
	f.RegisterCameraType("typed-nil", func(cfg Config) (Camera, error) {
		var cam *credentialRecorder
		return cam, nil
	})

	for _, typ := range []string{"nil", "broken", "typed-nil"} {
		cfg := Config{ID: "x", Type: typ, Brand: "Test", Host: "h", Username: "admin", Password: "secret"}
		if _, err := f.CreateCamera(cfg); !isConfigurationError(err) {
			t.Errorf("type %s: expected ConfigurationError, got %v", typ, err)
		}
	}
}

type credentialRecorder struct {
	Profile
	creds *[2]string
}

func (c *credentialRecorder) SetCredentials(username, password string) {
	*c.creds = [2]string{username, password}
}

func (c *credentialRecorder) CaptureImage(ctx context.Context) ([]byte, error) {
	return nil, nil
}
