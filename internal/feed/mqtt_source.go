package feed

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

// RawHandler converts raw IMU samples into readings and stores them.
type RawHandler struct {
	Store    *Store
	AccelLSB float64
	GyroLSB  float64
}

// Handle decodes one MQTT payload. Bad payloads are logged and dropped.
func (h *RawHandler) Handle(topic string, payload []byte) {
	var raw imu.Raw
	if err := json.Unmarshal(payload, &raw); err != nil {
		log.Printf("feed: %s unmarshal error: %v", topic, err)
		return
	}
	r, err := imu.FromRaw(raw, h.AccelLSB, h.GyroLSB)
	if err != nil {
		log.Printf("feed: %s: %v", topic, err)
		return
	}
	h.Store.Update(r)
}

// SubscribeRaw subscribes h to every topic on client.
func SubscribeRaw(client mqtt.Client, topics []string, h *RawHandler) error {
	for _, topic := range topics {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			h.Handle(msg.Topic(), msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("feed: subscribed to %s", topic)
	}
	return nil
}
