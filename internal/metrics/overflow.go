package metrics

import (
	"github.com/san-kum/tanksim/internal/dynamo"
)

// Overflow is the fraction of samples in which any height exceeds the
// tank's maximum height.
type Overflow struct {
	name       string
	maxHeight  float64
	violations int
	samples    int
}

func NewOverflow(maxHeight float64) *Overflow {
	return &Overflow{
		name:      "overflow",
		maxHeight: maxHeight,
	}
}

func (o *Overflow) Name() string {
	return o.name
}

func (o *Overflow) Observe(x dynamo.State, u dynamo.Control, t float64) {
	o.samples++
	for _, h := range x {
		if h > o.maxHeight {
			o.violations++
			break
		}
	}
}

func (o *Overflow) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return float64(o.violations) / float64(o.samples)
}

func (o *Overflow) Reset() {
	o.violations = 0
	o.samples = 0
}
