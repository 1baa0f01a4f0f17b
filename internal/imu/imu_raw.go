package imu

import "fmt"

// Raw represents a single raw IMU sample in sensor counts, as published by
// the inertial producers on their MQTT topics.
type Raw struct {
	Source string `json:"source"` // unit name, e.g. "left" or "IMU_0"

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// FromRaw converts raw counts into a Reading. accelLSB is counts per m/s²,
// gyroLSB is counts per rad/s.
func FromRaw(raw Raw, accelLSB, gyroLSB float64) (Reading, error) {
	if raw.Source == "" {
		return Reading{}, fmt.Errorf("%w: raw sample without source", ErrMalformed)
	}
	if accelLSB == 0 || gyroLSB == 0 {
		return Reading{}, fmt.Errorf("raw conversion: zero sensitivity (accel=%v gyro=%v)", accelLSB, gyroLSB)
	}
	return NewReading(raw.Source,
		float64(raw.Ax)/accelLSB, float64(raw.Ay)/accelLSB, float64(raw.Az)/accelLSB,
		float64(raw.Gx)/gyroLSB, float64(raw.Gy)/gyroLSB, float64(raw.Gz)/gyroLSB,
	), nil
}

// FromScaled decodes a flat frame of integers, six per unit in the order
// ax, ay, az, gx, gy, gz. Each value is divided by scale and rounded to
// decimals places. Units are named IMU_0, IMU_1, ...
func FromScaled(values []int, scale, decimals int) (Snapshot, error) {
	if scale == 0 {
		return nil, fmt.Errorf("scaled frame: zero scale")
	}
	if len(values)%axesPerUnit != 0 {
		return nil, fmt.Errorf("%w: scaled frame has %d values, want a multiple of %d",
			ErrMalformed, len(values), axesPerUnit)
	}

	snap := make(Snapshot, 0, len(values)/axesPerUnit)
	for i := 0; i < len(values); i += axesPerUnit {
		f := make([]float64, axesPerUnit)
		for j := range f {
			f[j] = round(float64(values[i+j])/float64(scale), decimals)
		}
		snap = append(snap, NewReading(UnitName(i/axesPerUnit), f[0], f[1], f[2], f[3], f[4], f[5]))
	}
	return snap, nil
}
