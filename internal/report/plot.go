package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lockin.report/internal/sweep"
)

// linePalette returns n distinct colors spread around the hue circle.
func linePalette(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

// WritePlot renders the in-phase means of a digest as a PNG line plot,
// frequency on a log axis, one line per drive amplitude. Cells without
// samples are skipped.
func WritePlot(dir string, role sweep.Role, d *sweep.Digest) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", d.Label, role)
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Voltage (V)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	colors := linePalette(len(d.Ampls))
	for i, ampl := range d.Ampls {
		pts := make(plotter.XYs, 0, len(d.Freqs))
		for j, f := range d.Freqs {
			v := d.MeanX[j][i]
			if math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: f, Y: v})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("building plot line for %g V: %w", ampl, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%g V", ampl), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	file := filepath.Join(dir, fmt.Sprintf("%s_%s.png", role, d.ID))
	if err := p.Save(10*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("saving plot %s: %w", filepath.Base(file), err)
	}
	return nil
}
