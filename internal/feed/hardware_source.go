package feed

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

// RawReader reads one raw sample from an IMU.
type RawReader interface {
	ReadRaw() (imu.Raw, error)
}

type hardwareSource struct {
	readers  []RawReader
	accelLSB float64
	gyroLSB  float64
}

// NewHardwareSource builds snapshots from directly attached IMUs, one unit
// per reader in order.
func NewHardwareSource(readers []RawReader, accelLSB, gyroLSB float64) Source {
	return &hardwareSource{readers: readers, accelLSB: accelLSB, gyroLSB: gyroLSB}
}

// Next reads every IMU. Units that fail to read are left out of the
// snapshot; the error reports them. If no unit could be read the snapshot
// is nil.
func (h *hardwareSource) Next() (imu.Snapshot, error) {
	var (
		snap imu.Snapshot
		errs []error
	)
	for _, r := range h.readers {
		raw, err := r.ReadRaw()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reading, err := imu.FromRaw(raw, h.accelLSB, h.gyroLSB)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		snap = append(snap, reading)
	}
	if len(errs) > 0 {
		err := fmt.Errorf("hardware source: %d of %d units failed: %w", len(errs), len(h.readers), errors.Join(errs...))
		if len(snap) == 0 {
			return nil, err
		}
		return snap, err
	}
	return snap, nil
}
