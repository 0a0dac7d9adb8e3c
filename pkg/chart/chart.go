// Package chart renders run trends as PNG images.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ethpandaops/txreports/pkg/report"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no runs to chart")

// Metric selects the plotted value of each run.
type Metric string

const (
	MetricAchievedTPS Metric = "achieved_tps"
	MetricDropRate    Metric = "drop_rate"
)

// ParseMetric parses a metric name. The empty string selects achieved TPS.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricAchievedTPS:
		return MetricAchievedTPS, nil
	case MetricDropRate:
		return MetricDropRate, nil
	default:
		return "", fmt.Errorf("unknown chart metric %q", s)
	}
}

// Default image size.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 3 * vg.Inch
)

// Options controls WriteTrend.
type Options struct {
	Metric Metric
	Width  vg.Length
	Height vg.Length
	// ShowTarget overlays the target TPS of each run. Only used for
	// MetricAchievedTPS.
	ShowTarget bool
}

func (o *Options) applyDefaults() {
	if o.Metric == "" {
		o.Metric = MetricAchievedTPS
	}

	if o.Width <= 0 {
		o.Width = DefaultWidth
	}

	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
}

var (
	seriesColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	targetColor = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// WriteTrend plots the selected metric of records over their start time and
// writes the chart to w as PNG. Record order does not matter.
func WriteTrend(w io.Writer, title string, records []*report.RunRecord, opts Options) error {
	if len(records) == 0 {
		return ErrNoData
	}

	opts.applyDefaults()

	p, err := buildTrend(title, records, opts)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}

	return nil
}

func buildTrend(title string, records []*report.RunRecord, opts Options) (*plot.Plot, error) {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b *report.RunRecord) int {
		return a.Start.Compare(b.Start)
	})

	values := make(plotter.XYs, len(sorted))
	targets := make(plotter.XYs, len(sorted))

	for i, r := range sorted {
		x := float64(r.Start.Unix())

		values[i] = plotter.XY{X: x, Y: metricValue(r, opts.Metric)}
		targets[i] = plotter.XY{X: x, Y: float64(r.TargetTPS)}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "start (UTC)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02 15:04"}
	p.Y.Label.Text = yLabel(opts.Metric)
	p.Y.Min = 0

	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(values)
	if err != nil {
		return nil, fmt.Errorf("building line: %w", err)
	}

	line.Color = seriesColor
	line.Width = vg.Points(2)

	points, err := plotter.NewScatter(values)
	if err != nil {
		return nil, fmt.Errorf("building points: %w", err)
	}

	points.GlyphStyle.Color = seriesColor
	points.GlyphStyle.Radius = vg.Points(2.5)

	p.Add(line, points)
	p.Legend.Add(string(opts.Metric), line)

	if opts.ShowTarget && opts.Metric == MetricAchievedTPS {
		target, err := plotter.NewLine(targets)
		if err != nil {
			return nil, fmt.Errorf("building target line: %w", err)
		}

		target.Color = targetColor
		target.Width = vg.Points(1)
		target.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

		p.Add(target)
		p.Legend.Add("target_tps", target)
	}

	p.Legend.Top = true

	return p, nil
}

func metricValue(r *report.RunRecord, m Metric) float64 {
	if m == MetricDropRate {
		return r.DropRate * 100
	}

	return r.AchievedTPS
}

func yLabel(m Metric) string {
	if m == MetricDropRate {
		return "drop rate (%)"
	}

	return "achieved TPS"
}
