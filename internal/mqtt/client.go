package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/mooglejp/atomcam_tools/camsnap/internal/camera"
	"github.com/mooglejp/atomcam_tools/camsnap/internal/config"
)

const publishTimeout = 2 * time.Second

// Event is the JSON payload published for every capture
type Event struct {
	ID         string    `json:"id"`
	Camera     string    `json:"camera"`
	Brand      string    `json:"brand,omitempty"`
	Host       string    `json:"host,omitempty"`
	Bytes      int       `json:"bytes"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEvent converts a capture event into its published form
func NewEvent(ev camera.CaptureEvent, now time.Time) Event {
	e := Event{
		ID:         uuid.NewString(),
		Camera:     ev.CameraID,
		Brand:      ev.Brand,
		Host:       ev.Host,
		Bytes:      ev.Bytes,
		DurationMs: ev.Elapsed.Milliseconds(),
		Timestamp:  now.UTC(),
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	return e
}

// Notifier publishes capture events to an MQTT broker.
// It implements camera.CaptureObserver.
type Notifier struct {
	client mqtt.Client
	topic  string
	logger camera.Logger
}

var _ camera.CaptureObserver = (*Notifier)(nil)

// NewNotifier connects to the configured broker
func NewNotifier(cfg config.MQTTConfig, logger camera.Logger) (*Notifier, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("camsnap-%d", time.Now().Unix())
	}

	// Create MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}

	return newNotifier(client, cfg.Topic, logger), nil
}

func newNotifier(client mqtt.Client, topic string, logger camera.Logger) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{client: client, topic: topic, logger: logger}
}

// ObserveCapture publishes ev on <topic>/<camera id>. Failures are logged.
func (n *Notifier) ObserveCapture(ev camera.CaptureEvent) {
	payload, err := json.Marshal(NewEvent(ev, time.Now()))
	if err != nil {
		n.logger.Printf("Failed to encode capture event for %s: %v", ev.CameraID, err)
		return
	}

	topic := n.topic + "/" + ev.CameraID
	token := n.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		n.logger.Printf("Timed out publishing capture event to %s", topic)
		return
	}
	if err := token.Error(); err != nil {
		n.logger.Printf("Failed to publish MQTT message to %s: %v", topic, err)
	}
}

// Close disconnects from the broker
func (n *Notifier) Close() {
	n.client.Disconnect(250)
}
