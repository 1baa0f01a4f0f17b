package view

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderAccelPNG draws the accelerometer chart as grouped bars, three per unit.
func RenderAccelPNG(w io.Writer, c BarChart, width, height int) error {
	if c.Empty() {
		return renderEmptyPNG(w, c.Title, width, height)
	}

	bars := make([]chart.Value, 0, len(c.Categories)*len(c.Series))
	for i, name := range c.Categories {
		for _, s := range c.Series {
			col := hexColor(s.Color)
			bars = append(bars, chart.Value{
				Label: name + " " + strings.TrimSuffix(s.Name, "-Axis"),
				Value: s.Points[i].Value,
				Style: chart.Style{FillColor: col, StrokeColor: col},
			})
		}
	}

	lo, hi := paddedRange(c.Chart)
	bc := chart.BarChart{
		Title:        c.Title + " (" + c.Unit + ")",
		Width:        width,
		Height:       height,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		BarWidth:     barWidth(width, len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		YAxis:        chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:         bars,
	}
	return bc.Render(chart.PNG, w)
}

// RenderGyroPNG draws the gyroscope chart, one line per axis across units.
func RenderGyroPNG(w io.Writer, c LineChart, width, height int) error {
	if c.Empty() {
		return renderEmptyPNG(w, c.Title, width, height)
	}

	n := len(c.Categories)
	xs := make([]float64, n)
	// go-chart derives the x range from the ticks, so pad them by half a
	// slot on each side to keep a single unit plottable.
	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, name := range c.Categories {
		xs[i] = float64(i)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: name})
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})

	series := make([]chart.Series, 0, len(c.Series))
	for _, s := range c.Series {
		ys := make([]float64, n)
		for i, p := range s.Points {
			ys[i] = p.Value
		}
		col := hexColor(s.Color)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3},
		})
	}

	lo, hi := paddedRange(c.Chart)
	ch := chart.Chart{
		Title:      c.Title + " (" + c.Unit + ")",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5}, Ticks: ticks},
		YAxis:      chart.YAxis{Name: c.Unit, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// renderEmptyPNG draws a blank frame with a "no data" caption.
func renderEmptyPNG(w io.Writer, title string, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 0x40}),
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(10, 20)
	drawer.DrawString(title)
	drawer.Dot = fixed.P(10, height/2)
	drawer.DrawString("no data")

	return png.Encode(w, img)
}

// paddedRange widens the chart bounds by 10% so bars and dots never sit on
// the frame, and keeps the range non-degenerate for all-zero data.
func paddedRange(c Chart) (float64, float64) {
	lo, hi := c.Bounds()
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span*0.1, hi + span*0.1
}

func barWidth(width, bars int) int {
	w := (width - 80) / (bars * 2)
	if w < 4 {
		return 4
	}
	if w > 40 {
		return 40
	}
	return w
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
