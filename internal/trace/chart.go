package trace

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoFrames is returned when a chart is requested for an empty replay.
var ErrNoFrames = errors.New("no frames to chart")

var seriesColors = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255},
}

// series selects one value per frame.
type series struct {
	name  string
	value func(FrameResult) float64
}

var (
	positionSeries = []series{
		{"x", func(f FrameResult) float64 { return f.X }},
		{"y", func(f FrameResult) float64 { return f.Y }},
		{"x+overshoot", func(f FrameResult) float64 { return f.X + f.OvershootX }},
		{"y+overshoot", func(f FrameResult) float64 { return f.Y + f.OvershootY }},
	}
	velocitySeries = []series{
		{"vx", func(f FrameResult) float64 { return f.VelocityX }},
		{"vy", func(f FrameResult) float64 { return f.VelocityY }},
	}
)

// RenderHTML writes an interactive page with position and velocity charts.
func RenderHTML(w io.Writer, title string, frames []FrameResult) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	x := make([]string, len(frames))
	for i, f := range frames {
		x[i] = strconv.FormatUint(f.Timestamp, 10)
	}

	page := components.NewPage()
	page.AddCharts(
		lineChart(title+" - position", fmt.Sprintf("frames=%d", len(frames)), x, frames, positionSeries),
		lineChart(title+" - velocity", "", x, frames, velocitySeries),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func lineChart(title, subtitle string, x []string, frames []FrameResult, ss []series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "ts", NameLocation: "middle", NameGap: 25}),
	)
	line.SetXAxis(x)
	for _, s := range ss {
		data := make([]opts.LineData, len(frames))
		for i, f := range frames {
			data[i] = opts.LineData{Value: s.value(f)}
		}
		line.AddSeries(s.name, data)
	}
	return line
}

// RenderPNG saves a static position and velocity plot to path.
func RenderPNG(path, title string, frames []FrameResult) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Timestamp"
	p.Y.Label.Text = "Position / velocity"

	all := append(append([]series{}, positionSeries[:2]...), velocitySeries...)
	for i, s := range all {
		pts := make(plotter.XYs, len(frames))
		for j, f := range frames {
			pts[j] = plotter.XY{X: float64(f.Timestamp), Y: s.value(f)}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = seriesColors[i%len(seriesColors)]
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(s.name, l)
	}

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
