package performance

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sambutler/wheeltrack/internal/domain"
)

// ChartFilename is the name the rendered chart is saved under.
const ChartFilename = "performance.png"

// RenderPNG draws the portfolio and normalized benchmark lines, plus the
// moving-average overlay when present, and returns the encoded PNG.
func RenderPNG(p *Performance) ([]byte, error) {
	if p.Series == nil || p.Series.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to chart", domain.ErrPriceDataUnavailable)
	}

	xs, err := parseDates(p.Series.Dates)
	if err != nil {
		return nil, err
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Portfolio",
			XValues: xs,
			YValues: p.Series.Portfolio,
			Style: chart.Style{
				StrokeColor: drawing.ColorBlue,
				StrokeWidth: 2,
			},
		},
		chart.TimeSeries{
			Name:    "S&P 500",
			XValues: xs,
			YValues: p.Series.Benchmark,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("ff7f0e"),
				StrokeWidth: 2,
			},
		},
	}

	if len(p.SMA) > 0 && p.SMAOffset < len(xs) {
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("Portfolio SMA(%d)", smaPeriod),
			XValues: xs[p.SMAOffset:],
			YValues: p.SMA[p.SMAOffset:],
			Style: chart.Style{
				StrokeColor:     drawing.ColorBlue.WithAlpha(120),
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 4},
			},
		})
	}

	graph := chart.Chart{
		Title:  "Portfolio vs S&P 500",
		Width:  1000,
		Height: 500,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Value (USD)",
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf.Bytes(), nil
}

// SaveChart writes the rendered chart atomically into dir.
func SaveChart(dir string, png []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create charts dir: %w", err)
	}

	path := filepath.Join(dir, ChartFilename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to move chart into place: %w", err)
	}

	return path, nil
}

func parseDates(dates []string) ([]time.Time, error) {
	xs := make([]time.Time, len(dates))
	for i, d := range dates {
		t, err := time.Parse(domain.DateFormat, d)
		if err != nil {
			return nil, fmt.Errorf("invalid series date %q: %w", d, err)
		}
		xs[i] = t
	}
	return xs, nil
}
