package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/tanksim/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}

// Chart builds a line plot of every output of resp against time. A positive
// maxHeight adds a dashed reference line at that height.
func Chart(resp *sim.Response, title string, maxHeight float64) (*plot.Plot, error) {
	if resp.Len() == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "height"
	p.Add(plotter.NewGrid())

	for k, name := range resp.Names {
		pts := make(plotter.XYs, resp.Len())
		for i := range pts {
			pts[i].X = resp.Times[i]
			pts[i].Y = resp.Outputs[k][i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = palette[k%len(palette)]
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if maxHeight > 0 {
		limit, err := plotter.NewLine(plotter.XYs{
			{X: resp.Times[0], Y: maxHeight},
			{X: resp.Times[resp.Len()-1], Y: maxHeight},
		})
		if err != nil {
			return nil, err
		}
		limit.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		limit.LineStyle.Color = color.Gray{Y: 0x80}
		p.Add(limit)
		p.Legend.Add("hmax", limit)
	}

	p.Legend.Top = true
	return p, nil
}

// WritePNG renders the chart as a width x height inch PNG.
func WritePNG(w io.Writer, p *plot.Plot, width, height float64) error {
	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG charts resp into path, creating its directory.
func SavePNG(path string, resp *sim.Response, title string, maxHeight float64) error {
	p, err := Chart(resp, title, maxHeight)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	if err := WritePNG(f, p, 8, 5); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}
