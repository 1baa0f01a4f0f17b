package imu

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const axesPerUnit = 6

// ErrMalformed marks a payload that does not have the snapshot shape.
var ErrMalformed = errors.New("malformed imu payload")

// Reading is one unit's accelerometer (m/s²) and gyroscope (rad/s) values.
// A nil component means the field was absent in the payload.
type Reading struct {
	Name string `json:"name"`

	AccelX *float64 `json:"accel_x"`
	AccelY *float64 `json:"accel_y"`
	AccelZ *float64 `json:"accel_z"`

	GyroX *float64 `json:"gyro_x"`
	GyroY *float64 `json:"gyro_y"`
	GyroZ *float64 `json:"gyro_z"`
}

// Snapshot is the full set of readings returned by one poll, in display order.
type Snapshot []Reading

// NewReading builds a Reading with every component present.
func NewReading(name string, ax, ay, az, gx, gy, gz float64) Reading {
	return Reading{
		Name:   name,
		AccelX: &ax,
		AccelY: &ay,
		AccelZ: &az,
		GyroX:  &gx,
		GyroY:  &gy,
		GyroZ:  &gz,
	}
}

// UnitName returns the default name of the i-th unit.
func UnitName(i int) string {
	return fmt.Sprintf("IMU_%d", i)
}

// Placeholder returns n zero-valued readings named IMU_0..IMU_{n-1}.
func Placeholder(n int) Snapshot {
	snap := make(Snapshot, 0, max(n, 0))
	for i := 0; i < n; i++ {
		snap = append(snap, NewReading(UnitName(i), 0, 0, 0, 0, 0, 0))
	}
	return snap
}

// Accel returns the accelerometer components in X, Y, Z order.
func (r Reading) Accel() [3]*float64 {
	return [3]*float64{r.AccelX, r.AccelY, r.AccelZ}
}

// Gyro returns the gyroscope components in X, Y, Z order.
func (r Reading) Gyro() [3]*float64 {
	return [3]*float64{r.GyroX, r.GyroY, r.GyroZ}
}

// Validate reports the first missing field of r.
func (r Reading) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: record without name", ErrMalformed)
	}
	fields := []struct {
		key string
		v   *float64
	}{
		{"accel_x", r.AccelX}, {"accel_y", r.AccelY}, {"accel_z", r.AccelZ},
		{"gyro_x", r.GyroX}, {"gyro_y", r.GyroY}, {"gyro_z", r.GyroZ},
	}
	for _, f := range fields {
		if f.v == nil {
			return fmt.Errorf("%w: %s missing %s", ErrMalformed, r.Name, f.key)
		}
	}
	return nil
}

// Names returns the unit names in order.
func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, r := range s {
		names[i] = r.Name
	}
	return names
}

// Clone returns a deep copy so callers can't mutate held state through
// the component pointers.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i, r := range s {
		out[i] = Reading{
			Name:   r.Name,
			AccelX: clonePtr(r.AccelX),
			AccelY: clonePtr(r.AccelY),
			AccelZ: clonePtr(r.AccelZ),
			GyroX:  clonePtr(r.GyroX),
			GyroY:  clonePtr(r.GyroY),
			GyroZ:  clonePtr(r.GyroZ),
		}
	}
	return out
}

// Decode parses a /api/imu response body. The body must be a JSON array of
// complete records with unique names.
func Decode(body []byte) (Snapshot, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: body is not an array", ErrMalformed)
	}

	snap := make(Snapshot, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, msg := range raw {
		var r Reading
		if err := json.Unmarshal(msg, &r); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrMalformed, r.Name)
		}
		seen[r.Name] = struct{}{}
		snap = append(snap, r)
	}
	return snap, nil
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
