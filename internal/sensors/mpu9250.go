// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_dashboard/internal/config"
	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

// MPU is one initialized MPU9250.
type MPU struct {
	name string
	dev  *mpu9250.MPU9250
}

// OpenMPU9250 initializes one MPU9250 over SPI at its power-on ranges
// (±2g, ±250°/s), runs the self-test and calibrates it.
func OpenMPU9250(d config.IMUDevice) (*MPU, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", d.Name, err)
	}

	cs := gpioreg.ByName(d.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", d.Name, d.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(d.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", d.Name, d.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", d.Name, err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", d.Name, err)
	}

	if res, err := dev.SelfTest(); err != nil {
		log.Printf("Warning: %s IMU self-test failed: %v", d.Name, err)
	} else {
		log.Printf("%s IMU self-test passed: accel dev %.2f%%/%.2f%%/%.2f%%, gyro dev %.2f%%/%.2f%%/%.2f%%", d.Name,
			res.AccelDeviation.X, res.AccelDeviation.Y, res.AccelDeviation.Z,
			res.GyroDeviation.X, res.GyroDeviation.Y, res.GyroDeviation.Z)
	}

	if err := dev.Calibrate(); err != nil {
		log.Printf("Warning: %s IMU calibration failed: %v", d.Name, err)
	} else {
		log.Printf("%s IMU calibration complete", d.Name)
	}

	return &MPU{name: d.Name, dev: dev}, nil
}

// ReadRaw reads one accelerometer and gyroscope sample in sensor counts.
func (s *MPU) ReadRaw() (imu.Raw, error) {
	raw := imu.Raw{Source: s.name}
	reads := []struct {
		axis string
		dst  *int16
		get  func() (int16, error)
	}{
		{"accel X", &raw.Ax, s.dev.GetAccelerationX},
		{"accel Y", &raw.Ay, s.dev.GetAccelerationY},
		{"accel Z", &raw.Az, s.dev.GetAccelerationZ},
		{"gyro X", &raw.Gx, s.dev.GetRotationX},
		{"gyro Y", &raw.Gy, s.dev.GetRotationY},
		{"gyro Z", &raw.Gz, s.dev.GetRotationZ},
	}
	for _, r := range reads {
		v, err := r.get()
		if err != nil {
			return imu.Raw{}, fmt.Errorf("%s IMU %s: %w", s.name, r.axis, err)
		}
		*r.dst = v
	}
	return raw, nil
}
