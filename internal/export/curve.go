// Package export renders analysis results to image files.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"lactate-lab/internal/threshold"
)

// ErrNoPoints is returned when there is no curve to draw
var ErrNoPoints = errors.New("no data points to plot")

// Default image size
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// zoneColors are translucent fills for zones 1-5
var zoneColors = [threshold.ZoneCount]color.NRGBA{
	{R: 0x4c, G: 0xaf, B: 0x50, A: 0x30},
	{R: 0x8b, G: 0xc3, B: 0x4a, A: 0x30},
	{R: 0xff, G: 0xc1, B: 0x07, A: 0x30},
	{R: 0xff, G: 0x98, B: 0x00, A: 0x30},
	{R: 0xf4, G: 0x43, B: 0x36, A: 0x30},
}

var (
	curveColor        = color.RGBA{R: 0x21, G: 0x96, B: 0xf3, A: 0xff}
	interpolatedColor = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	lt1Color          = color.RGBA{R: 0x38, G: 0x8e, B: 0x3c, A: 0xff}
	lt2Color          = color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
)

// Curve is everything drawn on a lactate curve plot
type Curve struct {
	Title  string
	Unit   string // x axis unit label
	Points []threshold.DataPoint
	Result threshold.MethodResult
	Zones  []threshold.TrainingZone
}

// Plot builds the lactate curve with zone bands and threshold markers
func (c Curve) Plot() (*plot.Plot, error) {
	if len(c.Points) == 0 {
		return nil, ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = fmt.Sprintf("Load (%s)", c.Unit)
	p.Y.Label.Text = "Lactate (mmol/L)"
	p.Add(plotter.NewGrid())

	measured := make(plotter.XYs, 0, len(c.Points))
	interpolated := make(plotter.XYs, 0)
	maxLactate := 0.0
	for _, pt := range c.Points {
		xy := plotter.XY{X: pt.Load, Y: pt.Lactate}
		measured = append(measured, xy)
		if pt.IsInterpolated {
			interpolated = append(interpolated, xy)
		}
		if pt.Lactate > maxLactate {
			maxLactate = pt.Lactate
		}
	}
	top := maxLactate * 1.1

	for i, z := range c.Zones {
		if i >= len(zoneColors) || z.Range[1] <= z.Range[0] {
			continue
		}
		band, err := plotter.NewPolygon(plotter.XYs{
			{X: z.Range[0], Y: 0},
			{X: z.Range[1], Y: 0},
			{X: z.Range[1], Y: top},
			{X: z.Range[0], Y: top},
		})
		if err != nil {
			return nil, fmt.Errorf("zone %d band: %w", z.ID, err)
		}
		band.Color = zoneColors[i]
		band.LineStyle.Width = 0
		p.Add(band)
	}

	line, points, err := plotter.NewLinePoints(measured)
	if err != nil {
		return nil, fmt.Errorf("lactate curve: %w", err)
	}
	line.Color = curveColor
	line.Width = vg.Points(1.5)
	points.Shape = draw.CircleGlyph{}
	points.Color = curveColor
	p.Add(line, points)
	p.Legend.Add("lactate", line, points)

	if len(interpolated) > 0 {
		s, err := plotter.NewScatter(interpolated)
		if err != nil {
			return nil, fmt.Errorf("interpolated points: %w", err)
		}
		s.Shape = draw.RingGlyph{}
		s.Color = interpolatedColor
		s.Radius = vg.Points(5)
		p.Add(s)
		p.Legend.Add("corrected stage", s)
	}

	for _, m := range []struct {
		label string
		pt    *threshold.Point
		color color.Color
	}{
		{"LT1", c.Result.LT1, lt1Color},
		{"LT2", c.Result.LT2, lt2Color},
	} {
		if m.pt == nil {
			continue
		}
		s, err := plotter.NewScatter(plotter.XYs{{X: m.pt.Load, Y: m.pt.Lactate}})
		if err != nil {
			return nil, fmt.Errorf("%s marker: %w", m.label, err)
		}
		s.Shape = draw.PyramidGlyph{}
		s.Color = m.color
		s.Radius = vg.Points(5)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("%s %.0f", m.label, m.pt.Load), s)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10

	return p, nil
}

// WritePNG renders the curve as PNG to w
func (c Curve) WritePNG(w io.Writer, width, height vg.Length) error {
	p, err := c.Plot()
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("creating png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return nil
}

// SavePNG renders the curve to a PNG file, creating parent directories
func (c Curve) SavePNG(path string, width, height vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	p, err := c.Plot()
	if err != nil {
		return err
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
