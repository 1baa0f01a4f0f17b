package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_dashboard/internal/config"
	"github.com/relabs-tech/imu_dashboard/internal/dashboard"
	"github.com/relabs-tech/imu_dashboard/internal/imu"
	"github.com/relabs-tech/imu_dashboard/internal/view"
)

// oledLineY is the baseline of each text line on the 128x64 panel.
var oledLineY = [4]int{13, 26, 39, 52}

var oledWaiting = [4]string{"", "IMU Dashboard", "Waiting..."}

// oledPlaceholder stands in for view.Placeholder, which basicfont has no
// glyph for.
const oledPlaceholder = "--"

func oledText(s string) string {
	if s == view.Placeholder {
		return oledPlaceholder
	}
	return s
}

// oledLines lays out one card: header with page position, then one row per
// axis with accel and gyro side by side.
func oledLines(c view.Card, page, pages int) [4]string {
	var lines [4]string
	lines[0] = fmt.Sprintf("%-9s %d/%d", c.Name, page+1, pages)
	for i := range c.Accel {
		lines[i+1] = fmt.Sprintf("%s %7s %7s", c.Accel[i].Axis, oledText(c.Accel[i].Text), oledText(c.Gyro[i].Text))
	}
	return lines
}

// oledPage picks the card shown at step. It reports false when there is
// nothing to show.
func oledPage(v view.View, step int) ([4]string, bool) {
	if len(v.Cards) == 0 {
		return [4]string{}, false
	}
	page := step % len(v.Cards)
	return oledLines(v.Cards[page], page, len(v.Cards)), true
}

func drawOLED(dev *ssd1306.Dev, lines [4]string) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, oledLineY[i])
		drawer.DrawBytes([]byte(line))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// RunDisplay polls the telemetry endpoint and shows one unit at a time on
// an SSD1306 OLED, cycling through units every DISPLAY_UPDATE_INTERVAL.
func RunDisplay() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Println("display: initialized")

	if err := drawOLED(dev, oledWaiting); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	session := dashboard.NewSession(imu.Placeholder(cfg.PlaceholderUnits))
	poller := newPoller(cfg, session, nil)
	go poller.Run(ctx)

	stopMirror := startMirror(ctx, cfg, session)
	defer stopMirror()

	ticker := time.NewTicker(config.Interval(cfg.DisplayUpdateInterval))
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			log.Println("display: stopping")
			return nil
		case <-ticker.C:
		}

		lines, ok := oledPage(view.Build(session.Snapshot()), step)
		if !ok {
			lines = oledWaiting
		}
		if err := drawOLED(dev, lines); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
}
