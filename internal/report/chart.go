package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lockin.report/internal/sweep"
)

// WriteChart renders the in-phase means of a digest as an HTML line chart,
// one series per drive amplitude. Cells without samples render as gaps.
func WriteChart(dir string, role sweep.Role, d *sweep.Digest) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: d.Label, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    d.Label,
			Subtitle: fmt.Sprintf("role=%s harm=%d sens=%d", role, d.Harmonic, d.Sensitivity),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frequency (Hz)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Voltage (V)"}),
	)

	xAxis := make([]string, len(d.Freqs))
	for j, f := range d.Freqs {
		xAxis[j] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	line.SetXAxis(xAxis)

	for i, ampl := range d.Ampls {
		data := make([]opts.LineData, len(d.Freqs))
		for j := range d.Freqs {
			v := d.MeanX[j][i]
			if math.IsNaN(v) {
				data[j] = opts.LineData{Value: nil}
				continue
			}
			data[j] = opts.LineData{Value: v}
		}
		line.AddSeries(fmt.Sprintf("%g V", ampl), data)
	}

	file := filepath.Join(dir, fmt.Sprintf("%s_%s.html", role, d.ID))
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("creating chart %s: %w", filepath.Base(file), err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("rendering chart %s: %w", filepath.Base(file), err)
	}
	return f.Close()
}
