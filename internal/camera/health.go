package camera

import (
	"context"
	"errors"
	"sync"
	"time"
)

// unhealthyThreshold is the number of consecutive failed captures after
// which a camera is reported unhealthy
const unhealthyThreshold = 3

// HealthChecker tracks camera health from the captures made through a
// Manager. With a non-zero interval it also probes every camera itself.
type HealthChecker struct {
	manager  *Manager
	interval time.Duration
	logger   Logger

	mu       sync.Mutex
	failures map[string]int // consecutive failures per camera
	healthy  map[string]bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthChecker creates a health checker and registers it as an
// observer of m
func NewHealthChecker(m *Manager, interval time.Duration, logger Logger) *HealthChecker {
	if logger == nil {
		logger = discardLogger()
	}
	h := &HealthChecker{
		manager:  m,
		interval: interval,
		logger:   logger,
		failures: make(map[string]int),
		healthy:  make(map[string]bool),
	}
	m.AddObserver(h)
	return h
}

// Start starts periodic probing. It does nothing when the interval is zero.
func (h *HealthChecker) Start(ctx context.Context) {
	if h.interval <= 0 || h.cancel != nil {
		return
	}
	ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	go h.run(ctx)
}

// Stop stops periodic probing and waits for an in-flight round
func (h *HealthChecker) Stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}

func (h *HealthChecker) run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Printf("Health checker started (interval: %v)", h.interval)

	for {
		select {
		case <-ctx.Done():
			h.logger.Printf("Health checker stopped")
			return
		case <-ticker.C:
			h.checkAllCameras(ctx)
		}
	}
}

// checkAllCameras captures once from every camera. Results arrive through
// ObserveCapture.
func (h *HealthChecker) checkAllCameras(ctx context.Context) {
	for _, cam := range h.manager.List() {
		if ctx.Err() != nil {
			return
		}
		_, _ = h.manager.CaptureImage(ctx, cam.ID())
	}
}

// ObserveCapture implements CaptureObserver
func (h *HealthChecker) ObserveCapture(ev CaptureEvent) {
	var notFound *NotFoundError
	if errors.As(ev.Err, &notFound) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := ev.CameraID
	if ev.Err != nil {
		h.failures[id]++
		consecutive := h.failures[id]

		h.logger.Printf("Camera %s capture failed (%d consecutive failures): %v", id, consecutive, ev.Err)

		if consecutive >= unhealthyThreshold && h.isHealthy(id) {
			h.healthy[id] = false
			h.logger.Printf("Camera %s marked as UNHEALTHY", id)
		}
		return
	}

	if h.failures[id] > 0 {
		h.logger.Printf("Camera %s capture succeeded (recovered)", id)
	}
	h.failures[id] = 0

	if !h.isHealthy(id) {
		h.logger.Printf("Camera %s marked as HEALTHY", id)
	}
	h.healthy[id] = true
}

// CameraRemoved implements RemovalObserver so a camera re-added under the
// same id starts healthy
func (h *HealthChecker) CameraRemoved(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, id)
	delete(h.healthy, id)
}

// isHealthy must be called with mu held. Cameras not seen yet count as
// healthy.
func (h *HealthChecker) isHealthy(id string) bool {
	healthy, seen := h.healthy[id]
	return !seen || healthy
}

// Healthy reports whether the camera with the given id is healthy.
// Unknown ids are unhealthy.
func (h *HealthChecker) Healthy(id string) bool {
	if _, err := h.manager.GetCamera(id); err != nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isHealthy(id)
}

// Status returns the health of every camera currently in the manager
func (h *HealthChecker) Status() map[string]bool {
	cameras := h.manager.List()

	h.mu.Lock()
	defer h.mu.Unlock()

	status := make(map[string]bool, len(cameras))
	for _, cam := range cameras {
		status[cam.ID()] = h.isHealthy(cam.ID())
	}
	return status
}
