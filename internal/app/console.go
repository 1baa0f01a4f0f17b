package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/relabs-tech/imu_dashboard/internal/config"
	"github.com/relabs-tech/imu_dashboard/internal/dashboard"
	"github.com/relabs-tech/imu_dashboard/internal/imu"
	"github.com/relabs-tech/imu_dashboard/internal/view"
)

var axisColors = []ui.Color{ui.ColorBlue, ui.ColorGreen, ui.ColorYellow}

// consoleWidgets is the terminal layout of the dashboard.
type consoleWidgets struct {
	accel   *widgets.BarChart
	gyro    *widgets.Plot
	waiting *widgets.Paragraph
	cards   *widgets.Table
	grid    *ui.Grid
}

func newConsoleWidgets() *consoleWidgets {
	c := &consoleWidgets{
		accel:   widgets.NewBarChart(),
		gyro:    widgets.NewPlot(),
		waiting: widgets.NewParagraph(),
		cards:   widgets.NewTable(),
		grid:    ui.NewGrid(),
	}
	c.accel.BarWidth = 6
	c.accel.NumFormatter = func(v float64) string { return fmt.Sprintf("%.1f", v) }
	c.gyro.Marker = widgets.MarkerBraille
	c.gyro.AxesColor = ui.ColorWhite
	c.gyro.LineColors = axisColors
	c.waiting.Text = "Waiting for data..."
	c.cards.TextStyle = ui.NewStyle(ui.ColorWhite)
	c.cards.RowSeparator = true
	return c
}

// update fills the widgets from v and rebuilds the grid. It never draws.
func (c *consoleWidgets) update(v view.View) {
	c.accel.Title = fmt.Sprintf(" %s (|%s|) ", v.Accel.Title, v.Accel.Unit)
	c.accel.Data, c.accel.Labels, c.accel.BarColors = barData(v.Accel)
	c.accel.MaxVal = scaleMax(c.accel.Data)

	c.gyro.Title = fmt.Sprintf(" %s (|%s|) ", v.Gyro.Title, v.Gyro.Unit)
	c.waiting.Title = c.gyro.Title
	data, plottable := plotData(v.Gyro)
	var gyroCell interface{} = c.waiting
	if plottable {
		c.gyro.Data = data
		c.gyro.MaxVal = scaleMax(data...)
		gyroCell = c.gyro
	}

	c.cards.Title = " Units "
	c.cards.Rows = cardRows(v.Cards)

	c.grid.Items = nil
	c.grid.Set(
		ui.NewRow(0.6,
			ui.NewCol(0.5, c.accel),
			ui.NewCol(0.5, gyroCell),
		),
		ui.NewRow(0.4, c.cards),
	)
}

// barData flattens the accelerometer chart into one bar per unit and axis.
// termui draws from a zero baseline only, so magnitudes are shown.
func barData(c view.BarChart) ([]float64, []string, []ui.Color) {
	var (
		data   []float64
		labels []string
		colors []ui.Color
	)
	for i, name := range c.Categories {
		for j, s := range c.Series {
			data = append(data, math.Abs(s.Points[i].Value))
			labels = append(labels, fmt.Sprintf("%s%c", shortName(name), s.Name[0]))
			colors = append(colors, axisColors[j%len(axisColors)])
		}
	}
	return data, labels, colors
}

// plotData returns one line per axis. termui needs at least two points per
// line, so a chart with fewer units is reported as not plottable.
func plotData(c view.LineChart) ([][]float64, bool) {
	if len(c.Categories) < 2 {
		return nil, false
	}
	data := make([][]float64, len(c.Series))
	for i, s := range c.Series {
		data[i] = make([]float64, len(s.Points))
		for j, p := range s.Points {
			data[i][j] = math.Abs(p.Value)
		}
	}
	return data, true
}

// scaleMax is the top of the value axis. termui divides by it, so an
// all-zero chart still gets a unit scale.
func scaleMax(series ...[]float64) float64 {
	top := 0.0
	for _, s := range series {
		for _, v := range s {
			top = math.Max(top, v)
		}
	}
	if top == 0 {
		return 1
	}
	return top
}

func cardRows(cards []view.Card) [][]string {
	rows := [][]string{{"Unit", "Accel X", "Accel Y", "Accel Z", "Gyro X", "Gyro Y", "Gyro Z"}}
	for _, c := range cards {
		row := []string{c.Name}
		for _, a := range c.Accel {
			row = append(row, a.Text)
		}
		for _, g := range c.Gyro {
			row = append(row, g.Text)
		}
		rows = append(rows, row)
	}
	return rows
}

func shortName(name string) string {
	if len(name) > 5 {
		return name[len(name)-5:]
	}
	return name
}

// RunConsole polls the telemetry endpoint and draws the dashboard in the
// terminal until q, Ctrl+C or SIGTERM.
func RunConsole() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to init termui: %w", err)
	}
	defer ui.Close()

	// termui owns the terminal; poll diagnostics go to a file instead.
	logFile := redirectLog(filepath.Join(os.TempDir(), "imu_dashboard_console.log"))
	defer func() {
		log.SetOutput(os.Stderr)
		if logFile != nil {
			logFile.Close()
		}
	}()

	session := dashboard.NewSession(imu.Placeholder(cfg.PlaceholderUnits))
	poller := newPoller(cfg, session, nil)

	go poller.Run(ctx)

	go func() {
		for e := range ui.PollEvents() {
			if e.Type != ui.KeyboardEvent {
				continue
			}
			if e.ID == "q" || e.ID == "<C-c>" {
				stop()
				return
			}
		}
	}()

	w := newConsoleWidgets()
	dashboard.Follow(ctx, session, func(snap imu.Snapshot) {
		w.update(view.Build(snap))
		width, height := ui.TerminalDimensions()
		w.grid.SetRect(0, 0, width, height)
		ui.Render(w.grid)
	})
	return nil
}

func redirectLog(path string) *os.File {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	return f
}
