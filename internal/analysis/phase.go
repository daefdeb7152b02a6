package analysis

import (
	"strings"

	"github.com/san-kum/tanksim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

// PhasePortrait is the trajectory of a run in the (h1, h2) plane.
type PhasePortrait struct {
	H1, H2 []float64
}

// Phase extracts the portrait from a recorded run's state trajectory.
func Phase(resp *sim.Response) *PhasePortrait {
	p := &PhasePortrait{
		H1: make([]float64, 0, len(resp.States)),
		H2: make([]float64, 0, len(resp.States)),
	}
	for _, x := range resp.States {
		if len(x) < 2 {
			continue
		}
		p.H1 = append(p.H1, x[0])
		p.H2 = append(p.H2, x[1])
	}
	return p
}

// ASCII renders the portrait with h1 across and h2 up.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.H1) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := floats.Min(p.H1), floats.Max(p.H1)
	minY, maxY := floats.Min(p.H2), floats.Max(p.H2)
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i := range p.H1 {
		col := int((p.H1[i] - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.H2[i]-minY)/rangeY*float64(height-1))
		canvas[row][col] = '•'
	}
	// mark the end point
	last := len(p.H1) - 1
	col := int((p.H1[last] - minX) / rangeX * float64(width-1))
	row := height - 1 - int((p.H2[last]-minY)/rangeY*float64(height-1))
	canvas[row][col] = '◆'

	var sb strings.Builder
	for _, r := range canvas {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}
