package app

import (
	"testing"
	"unicode"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
	"github.com/relabs-tech/imu_dashboard/internal/view"
)

func TestOLEDLines(t *testing.T) {
	r := imu.NewReading("IMU_1", 1, -2.5, 9.81, 0.1, 0, -0.25)
	r.GyroY = nil

	got := oledLines(view.NewCard(r), 1, 3)
	want := [4]string{
		"IMU_1     2/3",
		"X   1.000   0.100",
		"Y  -2.500      --",
		"Z   9.810  -0.250",
	}
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for _, line := range got {
		for _, ch := range line {
			if ch > unicode.MaxASCII {
				t.Fatalf("line %q has a glyph basicfont cannot draw", line)
			}
		}
		// 7 px per glyph on a 128 px wide panel
		if n := len([]rune(line)); n > 128/7 {
			t.Fatalf("line %q does not fit the panel (%d glyphs)", line, n)
		}
	}
}

func TestOLEDPageCycles(t *testing.T) {
	v := view.Build(imu.Placeholder(2))

	for step, want := range []string{"IMU_0", "IMU_1", "IMU_0"} {
		lines, ok := oledPage(v, step)
		if !ok {
			t.Fatalf("step %d: expected a page", step)
		}
		if lines[0][:5] != want {
			t.Fatalf("step %d: expected %s, got %q", step, want, lines[0])
		}
	}

	if _, ok := oledPage(view.Build(imu.Snapshot{}), 0); ok {
		t.Fatalf("expected no page for empty snapshot")
	}
}
