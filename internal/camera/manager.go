package camera

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// CaptureEvent describes one CaptureImage call
type CaptureEvent struct {
	CameraID string
	Brand    string
	Host     string
	Elapsed  time.Duration
	Bytes    int
	Err      error
}

// CaptureObserver is notified after every capture made through a Manager
type CaptureObserver interface {
	ObserveCapture(ev CaptureEvent)
}

// RemovalObserver is implemented by observers that keep per-camera state.
// The Manager calls CameraRemoved after a camera was removed.
type RemovalObserver interface {
	CameraRemoved(id string)
}

// Manager holds the cameras keyed by id
type Manager struct {
	factory   *Factory
	logger    Logger
	mu        sync.RWMutex
	cameras   map[string]Camera
	order     []string
	observers []CaptureObserver
}

// NewManager creates an empty manager. A nil factory gets NewFactory, a
// nil logger writes to stderr.
func NewManager(factory *Factory, logger Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if factory == nil {
		factory = NewFactory(logger)
	}
	return &Manager{
		factory: factory,
		logger:  logger,
		cameras: make(map[string]Camera),
	}
}

// Factory returns the factory cameras are created with
func (m *Manager) Factory() *Factory {
	return m.factory
}

// AddObserver registers o for every later capture
func (m *Manager) AddObserver(o CaptureObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// AddCamera creates a camera from cfg and stores it under cfg.ID
func (m *Manager) AddCamera(cfg Config) (Camera, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, &ConfigurationError{Field: "id", Reason: "is required"}
	}

	m.mu.RLock()
	_, exists := m.cameras[cfg.ID]
	m.mu.RUnlock()
	if exists {
		return nil, &DuplicateIDError{ID: cfg.ID}
	}

	// Constructors run unlocked and may call back into the manager
	cam, err := m.factory.CreateCamera(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cameras[cfg.ID]; ok {
		return nil, &DuplicateIDError{ID: cfg.ID}
	}
	m.cameras[cfg.ID] = cam
	m.order = append(m.order, cfg.ID)

	return cam, nil
}

// AddCameras adds every config, logging and skipping the ones that fail.
// It returns the number of cameras added.
func (m *Manager) AddCameras(cfgs []Config) int {
	added := 0
	for i, cfg := range cfgs {
		if _, err := m.AddCamera(cfg); err != nil {
			m.logger.Printf("Skipping camera[%d] (%s): %v", i, cfg.ID, err)
			continue
		}
		added++
	}
	return added
}

// AddCameraRecords parses untyped records with ParseConfig and adds them
// like AddCameras
func (m *Manager) AddCameraRecords(records []map[string]any) int {
	cfgs := make([]Config, 0, len(records))
	for i, raw := range records {
		cfg, err := ParseConfig(raw)
		if err != nil {
			m.logger.Printf("Skipping camera[%d]: %v", i, err)
			continue
		}
		cfgs = append(cfgs, cfg)
	}
	return m.AddCameras(cfgs)
}

// GetCamera retrieves a camera by id
func (m *Manager) GetCamera(id string) (Camera, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cam, ok := m.cameras[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return cam, nil
}

// RemoveCamera deletes a camera and reports whether it existed
func (m *Manager) RemoveCamera(id string) bool {
	m.mu.Lock()
	if _, ok := m.cameras[id]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.cameras, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	observers := m.observers
	m.mu.Unlock()

	for _, o := range observers {
		if r, ok := o.(RemovalObserver); ok {
			r.CameraRemoved(id)
		}
	}
	return true
}

// GetAllCameras returns a copy of the id to camera mapping
func (m *Manager) GetAllCameras() map[string]Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make(map[string]Camera, len(m.cameras))
	for id, cam := range m.cameras {
		all[id] = cam
	}
	return all
}

// List returns all cameras in insertion order
func (m *Manager) List() []Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cameras := make([]Camera, 0, len(m.order))
	for _, id := range m.order {
		cameras = append(cameras, m.cameras[id])
	}
	return cameras
}

// Len returns the number of cameras
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cameras)
}

// GetAvailableBrands returns each brand once, in first-seen order
func (m *Manager) GetAvailableBrands() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var brands []string
	for _, id := range m.order {
		brand := m.cameras[id].Brand()
		if seen[brand] {
			continue
		}
		seen[brand] = true
		brands = append(brands, brand)
	}
	return brands
}

// CaptureImage captures a still from the camera with the given id.
// Errors from the camera are returned unchanged.
func (m *Manager) CaptureImage(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()

	cam, err := m.GetCamera(id)
	if err != nil {
		m.notify(CaptureEvent{CameraID: id, Elapsed: time.Since(start), Err: err})
		return nil, err
	}

	// Network I/O happens outside the lock
	data, err := cam.CaptureImage(ctx)
	m.notify(CaptureEvent{
		CameraID: id,
		Brand:    cam.Brand(),
		Host:     cam.Host(),
		Elapsed:  time.Since(start),
		Bytes:    len(data),
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (m *Manager) notify(ev CaptureEvent) {
	m.mu.RLock()
	observers := m.observers
	m.mu.RUnlock()

	for _, o := range observers {
		o.ObserveCapture(ev)
	}
}
