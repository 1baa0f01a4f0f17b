package app

import (
	"reflect"
	"testing"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
	"github.com/relabs-tech/imu_dashboard/internal/view"
)

func TestBarDataMagnitudesInSnapshotOrder(t *testing.T) {
	v := view.Build(imu.Snapshot{
		imu.NewReading("IMU_0", -1, 2, 3, 0, 0, 0),
		imu.NewReading("IMU_1", 4, -5, 6, 0, 0, 0),
	})

	data, labels, colors := barData(v.Accel)
	if want := []float64{1, 2, 3, 4, 5, 6}; !reflect.DeepEqual(data, want) {
		t.Fatalf("expected %v, got %v", want, data)
	}
	if labels[0] != "IMU_0X" || labels[5] != "IMU_1Z" {
		t.Fatalf("unexpected labels %v", labels)
	}
	if len(colors) != 6 || colors[0] != axisColors[0] || colors[4] != axisColors[1] {
		t.Fatalf("unexpected colors %v", colors)
	}
}

func TestPlotDataNeedsTwoUnits(t *testing.T) {
	if _, ok := plotData(view.Build(nil).Gyro); ok {
		t.Fatalf("expected empty chart not plottable")
	}
	if _, ok := plotData(view.Build(imu.Placeholder(1)).Gyro); ok {
		t.Fatalf("expected single unit not plottable")
	}

	data, ok := plotData(view.Build(imu.Snapshot{
		imu.NewReading("A", 0, 0, 0, 0.1, -0.2, 0.3),
		imu.NewReading("B", 0, 0, 0, 0.4, 0.5, -0.6),
	}).Gyro)
	if !ok {
		t.Fatalf("expected two units plottable")
	}
	if want := [][]float64{{0.1, 0.4}, {0.2, 0.5}, {0.3, 0.6}}; !reflect.DeepEqual(data, want) {
		t.Fatalf("expected %v, got %v", want, data)
	}
}

func TestScaleMax(t *testing.T) {
	if got := scaleMax([]float64{0, 0}); got != 1 {
		t.Fatalf("expected unit scale for zeros, got %v", got)
	}
	if got := scaleMax(); got != 1 {
		t.Fatalf("expected unit scale for no data, got %v", got)
	}
	if got := scaleMax([]float64{1, 2}, []float64{7}); got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
}

func TestCardRows(t *testing.T) {
	r := imu.NewReading("IMU_0", 1, 2, 3, 0.1, 0.2, 0.3)
	r.GyroY = nil
	rows := cardRows(view.Build(imu.Snapshot{r}).Cards)

	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	want := []string{"IMU_0", "1.000", "2.000", "3.000", "0.100", view.Placeholder, "0.300"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Fatalf("expected %v, got %v", want, rows[1])
	}
}

func TestConsoleUpdateHandlesEmptyAndPlaceholder(t *testing.T) {
	w := newConsoleWidgets()
	for _, snap := range []imu.Snapshot{nil, imu.Placeholder(3), imu.Placeholder(1)} {
		w.update(view.Build(snap))
		if len(w.cards.Rows) != len(snap)+1 {
			t.Fatalf("expected %d table rows, got %d", len(snap)+1, len(w.cards.Rows))
		}
		if w.accel.MaxVal <= 0 {
			t.Fatalf("expected positive bar scale, got %v", w.accel.MaxVal)
		}
	}
}
