// Package mirror republishes every snapshot the dashboard applies to MQTT,
// so other subscribers see exactly what is on screen.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_dashboard/internal/dashboard"
	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

const publishTimeout = 2 * time.Second

// Mirror publishes snapshots as retained JSON messages on Topic.
type Mirror struct {
	Client mqtt.Client
	Topic  string
}

// Connect dials broker and returns a Mirror publishing on topic.
func Connect(broker, clientID, topic string) (*Mirror, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("mirror: connected to MQTT broker at %s", broker)

	return &Mirror{Client: client, Topic: topic}, nil
}

// Publish sends one snapshot.
func (m *Mirror) Publish(snap imu.Snapshot) error {
	if snap == nil {
		snap = imu.Snapshot{}
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("mirror marshal: %w", err)
	}

	token := m.Client.Publish(m.Topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mirror publish %s: timeout", m.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mirror publish %s: %w", m.Topic, err)
	}
	return nil
}

// Run publishes every snapshot applied to s until the session closes or
// ctx is done. Publish errors are logged and otherwise ignored.
func (m *Mirror) Run(ctx context.Context, s *dashboard.Session) {
	dashboard.Follow(ctx, s, func(snap imu.Snapshot) {
		// Version 0 is the placeholder, not a polled snapshot.
		if s.Version() == 0 {
			return
		}
		if err := m.Publish(snap); err != nil {
			log.Printf("mirror: %v", err)
		}
	})
}

// Close disconnects from the broker.
func (m *Mirror) Close() {
	m.Client.Disconnect(250)
}
