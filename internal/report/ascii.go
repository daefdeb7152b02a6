package report

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tanksim/internal/sim"
)

var seriesColors = []asciigraph.AnsiColor{asciigraph.Blue, asciigraph.Green, asciigraph.Yellow}

// ASCII charts every output of resp in one graph, plus the pump command in a
// second graph when showInput is set.
func ASCII(resp *sim.Response, width, height int, showInput bool) (string, error) {
	if resp.Len() < 2 {
		return "", fmt.Errorf("need at least 2 samples to chart, have %d", resp.Len())
	}

	caption := fmt.Sprintf("%s over t = %.2f..%.2f s", strings.Join(resp.Names, ", "),
		resp.Times[0], resp.Times[resp.Len()-1])
	chart := asciigraph.PlotMany(resp.Outputs,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(seriesColors[:len(resp.Outputs)]...),
	)

	if !showInput {
		return chart, nil
	}

	input := asciigraph.Plot(resp.Inputs,
		asciigraph.Height(max(height/3, 3)),
		asciigraph.Width(width),
		asciigraph.Caption("pump command u"),
	)
	return chart + "\n\n" + input, nil
}
