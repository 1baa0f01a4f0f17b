// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feed

import (
	"math"
	"time"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

// Source is anything that can provide snapshots over time.
type Source interface {
	Next() (imu.Snapshot, error)
}

type mockSource struct {
	start time.Time
	units int
	now   func() time.Time
}

// NewMockSource creates a mock source for units IMUs that generates smooth
// changing values around 1 g on Z.
func NewMockSource(units int) Source {
	return &mockSource{start: time.Now(), units: max(units, 0), now: time.Now}
}

// mockScale matches the fixed-point frames of the excavator backend: each
// value is sent as an integer multiple of 1/127 and served to 2 decimals.
const mockScale = 127

func (m *mockSource) Next() (imu.Snapshot, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	frame := make([]int, 0, 6*m.units)
	for i := 0; i < m.units; i++ {
		phase := float64(i) * math.Pi / 3
		for _, v := range []float64{
			2 * math.Sin(elapsed+phase),
			1.5 * math.Cos(elapsed*0.7+phase),
			9.81 + 0.3*math.Sin(elapsed*2+phase),
			0.5 * math.Sin(elapsed*1.3+phase),
			0.4 * math.Cos(elapsed*0.9+phase),
			0.2 * math.Sin(elapsed*0.5+phase),
		} {
			frame = append(frame, int(math.Round(v*mockScale)))
		}
	}
	return imu.FromScaled(frame, mockScale, 2)
}
