package view

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

func f(v float64) *float64 { return &v }

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   *float64
		want string
	}{
		{f(1.5), "1.500"},
		{f(0), "0.000"},
		{f(-0.1234), "-0.123"},
		{f(9.80665), "9.807"},
		{f(1e6), "1000000.000"},
		{nil, Placeholder},
		{f(math.NaN()), Placeholder},
		{f(math.Inf(1)), Placeholder},
	}
	for _, tc := range cases {
		if got := FormatValue(tc.in); got != tc.want {
			t.Fatalf("FormatValue(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestBuildSingleUnit(t *testing.T) {
	snap := imu.Snapshot{imu.NewReading("IMU_0", 1, 2, 3, 0.1, 0.2, 0.3)}
	v := Build(snap)

	if len(v.Cards) != 1 || v.Cards[0].Name != "IMU_0" {
		t.Fatalf("expected one card titled IMU_0, got %+v", v.Cards)
	}

	var accel, gyro []string
	for i := range v.Cards[0].Accel {
		accel = append(accel, v.Cards[0].Accel[i].Line())
		gyro = append(gyro, v.Cards[0].Gyro[i].Line())
	}
	if want := []string{"X: 1.000", "Y: 2.000", "Z: 3.000"}; !reflect.DeepEqual(accel, want) {
		t.Fatalf("expected accel %v, got %v", want, accel)
	}
	if want := []string{"X: 0.100", "Y: 0.200", "Z: 0.300"}; !reflect.DeepEqual(gyro, want) {
		t.Fatalf("expected gyro %v, got %v", want, gyro)
	}

	for _, c := range []Chart{v.Accel.Chart, v.Gyro.Chart} {
		if len(c.Series) != 3 {
			t.Fatalf("expected 3 series in %s, got %d", c.Title, len(c.Series))
		}
		for _, s := range c.Series {
			if len(s.Points) != 1 {
				t.Fatalf("expected one point in %s/%s, got %d", c.Title, s.Name, len(s.Points))
			}
		}
	}
	if got := v.Gyro.Series[2].Points[0].Value; got != 0.3 {
		t.Fatalf("expected gyro z 0.3, got %v", got)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	snap := imu.Snapshot{
		imu.NewReading("IMU_0", 1, 2, 3, 0.1, 0.2, 0.3),
		imu.NewReading("IMU_1", -4, 5.5, 9.81, 0, -0.02, 1),
	}
	if a, b := Build(snap), Build(snap); !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical views, got %+v and %+v", a, b)
	}
}

func TestBuildFollowsSnapshotOrder(t *testing.T) {
	a := imu.NewReading("A", 1, 1, 1, 1, 1, 1)
	b := imu.NewReading("B", 2, 2, 2, 2, 2, 2)

	ab := Build(imu.Snapshot{a, b})
	ba := Build(imu.Snapshot{b, a})

	if ab.Cards[0].Name != "A" || ba.Cards[0].Name != "B" {
		t.Fatalf("card order does not follow snapshot order")
	}
	if !reflect.DeepEqual(ab.Cards[0], ba.Cards[1]) || !reflect.DeepEqual(ab.Cards[1], ba.Cards[0]) {
		t.Fatalf("reordering changed card contents")
	}
	if ba.Accel.Categories[0] != "B" || ba.Accel.Series[0].Points[0].Value != 2 {
		t.Fatalf("chart order does not follow snapshot order: %+v", ba.Accel)
	}
}

func TestBuildMissingComponent(t *testing.T) {
	r := imu.NewReading("IMU_0", 1, 2, 3, 0.1, 0.2, 0.3)
	r.AccelZ = nil

	v := Build(imu.Snapshot{r})
	if got := v.Cards[0].Accel[2].Text; got != Placeholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
	p := v.Accel.Series[2].Points[0]
	if !p.Missing || p.Value != 0 {
		t.Fatalf("expected missing zero point, got %+v", p)
	}
}

func TestBuildEmpty(t *testing.T) {
	v := Build(imu.Snapshot{})
	if len(v.Cards) != 0 {
		t.Fatalf("expected no cards, got %d", len(v.Cards))
	}
	if !v.Accel.Empty() || !v.Gyro.Empty() {
		t.Fatalf("expected empty charts")
	}
	for _, s := range v.Gyro.Series {
		if len(s.Points) != 0 {
			t.Fatalf("expected no points, got %d", len(s.Points))
		}
	}
}

func TestRenderPNG(t *testing.T) {
	views := map[string]View{
		"single": Build(imu.Snapshot{imu.NewReading("IMU_0", 1, 2, 3, 0.1, 0.2, 0.3)}),
		"zeros":  Build(imu.Placeholder(3)),
		"empty":  Build(nil),
	}
	for name, v := range views {
		t.Run(name, func(t *testing.T) {
			var accel, gyro bytes.Buffer
			if err := RenderAccelPNG(&accel, v.Accel, 500, 300); err != nil {
				t.Fatalf("accel render: %v", err)
			}
			if err := RenderGyroPNG(&gyro, v.Gyro, 500, 300); err != nil {
				t.Fatalf("gyro render: %v", err)
			}
			for _, b := range []*bytes.Buffer{&accel, &gyro} {
				if !bytes.HasPrefix(b.Bytes(), []byte("\x89PNG")) {
					t.Fatalf("expected PNG output")
				}
			}
		})
	}
}

func TestRenderPage(t *testing.T) {
	v := Build(imu.Snapshot{imu.NewReading("IMU_<0>", 1, 2, 3, 0.1, 0.2, 0.3)})
	var buf bytes.Buffer
	if err := RenderPage(&buf, PageData{Title: "Excavator IMU Data", ChartWidth: 500, ChartHeight: 300, View: v}); err != nil {
		t.Fatalf("render page: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Excavator IMU Data", "IMU_&lt;0&gt;", "X: 1.000", "Z: 0.300", "/charts/gyro.png"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
}
