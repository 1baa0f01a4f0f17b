// Package view turns a snapshot into what the dashboards draw. Everything
// here is a pure function of the snapshot it is given.
package view

import (
	"fmt"
	"math"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
)

// Placeholder is shown in place of a value the reading does not carry.
const Placeholder = "—"

var axes = [3]string{"X", "Y", "Z"}

// AxisValue is one formatted component of a card.
type AxisValue struct {
	Axis string `json:"axis"`
	Text string `json:"text"`
}

// Card is the status card of a single unit.
type Card struct {
	Name  string       `json:"name"`
	Accel [3]AxisValue `json:"accel"`
	Gyro  [3]AxisValue `json:"gyro"`
}

// Point is one plotted value. Missing points are drawn at zero.
type Point struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// Series is one axis across all units.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Chart is shared by the accelerometer bar chart and the gyro line chart.
type Chart struct {
	Title      string   `json:"title"`
	Unit       string   `json:"unit"`
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// BarChart groups one bar per axis under every unit.
type BarChart struct{ Chart }

// LineChart draws one line per axis across the units.
type LineChart struct{ Chart }

// View is everything a dashboard renders for one snapshot.
type View struct {
	Cards []Card    `json:"cards"`
	Accel BarChart  `json:"accel"`
	Gyro  LineChart `json:"gyro"`
}

// axis colors, X Y Z
var seriesColors = [3]string{"#8884d8", "#82ca9d", "#ffc658"}

// FormatValue renders v with exactly three decimals.
func FormatValue(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	return fmt.Sprintf("%.3f", *v)
}

// Line returns the card row text, e.g. "X: 1.000".
func (a AxisValue) Line() string {
	return a.Axis + ": " + a.Text
}

// NewCard formats one reading.
func NewCard(r imu.Reading) Card {
	c := Card{Name: r.Name}
	acc, gyr := r.Accel(), r.Gyro()
	for i, axis := range axes {
		c.Accel[i] = AxisValue{Axis: axis, Text: FormatValue(acc[i])}
		c.Gyro[i] = AxisValue{Axis: axis, Text: FormatValue(gyr[i])}
	}
	return c
}

// Build renders the whole view for s.
func Build(s imu.Snapshot) View {
	v := View{
		Cards: make([]Card, 0, len(s)),
		Accel: BarChart{newChart("Accelerometer Data", "m/s²", s, imu.Reading.Accel)},
		Gyro:  LineChart{newChart("Gyroscope Data", "rad/s", s, imu.Reading.Gyro)},
	}
	for _, r := range s {
		v.Cards = append(v.Cards, NewCard(r))
	}
	return v
}

func newChart(title, unit string, s imu.Snapshot, components func(imu.Reading) [3]*float64) Chart {
	c := Chart{
		Title:      title,
		Unit:       unit,
		Categories: s.Names(),
		Series:     make([]Series, len(axes)),
	}
	for i, axis := range axes {
		c.Series[i] = Series{
			Name:   axis + "-Axis",
			Color:  seriesColors[i],
			Points: make([]Point, 0, len(s)),
		}
	}
	for _, r := range s {
		vals := components(r)
		for i := range axes {
			p := Point{Label: r.Name}
			if v := vals[i]; v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
				p.Value = *v
			} else {
				p.Missing = true
			}
			c.Series[i].Points = append(c.Series[i].Points, p)
		}
	}
	return c
}

// Empty reports whether the chart has nothing to plot.
func (c Chart) Empty() bool {
	return len(c.Categories) == 0
}

// Bounds returns the min and max plotted value, always including zero.
func (c Chart) Bounds() (lo, hi float64) {
	for _, s := range c.Series {
		for _, p := range s.Points {
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
	}
	return lo, hi
}
