package sensors

import (
	"testing"

	"github.com/relabs-tech/imu_dashboard/internal/config"
	"github.com/relabs-tech/imu_dashboard/internal/feed"
)

var _ feed.RawReader = (*MPU)(nil)

func TestOpenMPU9250UnknownCSPin(t *testing.T) {
	_, err := OpenMPU9250(config.IMUDevice{Name: "left", SPIDevice: "/dev/spidev0.0", CSPin: "NO_SUCH_PIN"})
	if err == nil {
		t.Fatalf("expected error for unknown chip select pin")
	}
}
