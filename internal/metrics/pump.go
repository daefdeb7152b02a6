package metrics

import (
	"math"

	"github.com/san-kum/tanksim/internal/dynamo"
)

// PumpEffort is the mean absolute pump command u over the grid samples;
// 1 means the pump ran at its rated voltage throughout.
type PumpEffort struct {
	sum     float64
	samples int
}

func NewPumpEffort() *PumpEffort {
	return &PumpEffort{}
}

func (p *PumpEffort) Name() string { return "pump_effort" }

func (p *PumpEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	p.sum += math.Abs(u.At(0))
	p.samples++
}

func (p *PumpEffort) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *PumpEffort) Reset() {
	p.sum = 0
	p.samples = 0
}

// PumpedVolume is the liquid delivered into tank 1, Kp·Vp·∫u dt, with the
// command integrated by the trapezoid rule between samples.
type PumpedVolume struct {
	gain   float64
	volume float64
	lastT  float64
	lastU  float64
	seen   bool
}

// NewPumpedVolume takes the inflow gain Kp·Vp.
func NewPumpedVolume(gain float64) *PumpedVolume {
	return &PumpedVolume{gain: gain}
}

func (p *PumpedVolume) Name() string { return "pumped_volume" }

func (p *PumpedVolume) Observe(x dynamo.State, u dynamo.Control, t float64) {
	cmd := u.At(0)
	if p.seen {
		p.volume += 0.5 * (cmd + p.lastU) * (t - p.lastT) * p.gain
	}
	p.lastT, p.lastU, p.seen = t, cmd, true
}

func (p *PumpedVolume) Value() float64 { return p.volume }

func (p *PumpedVolume) Reset() {
	*p = PumpedVolume{gain: p.gain}
}
