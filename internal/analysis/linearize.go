package analysis

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"

	"github.com/san-kum/tanksim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Linearize returns the Jacobian ∂f/∂x of sys at (x, u, t) by central
// differences with relative step eps.
func Linearize(sys dynamo.System, x dynamo.State, u dynamo.Control, t, eps float64) (*mat.Dense, error) {
	n := sys.StateDim()
	if len(x) != n {
		return nil, dynamo.ErrDimensionMismatch
	}
	if eps <= 0 {
		eps = 1e-6
	}

	jac := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		h := eps * math.Max(1, math.Abs(x[j]))

		xp := x.Clone()
		xp[j] += h
		fp, err := sys.Derive(xp, u, t)
		if err != nil {
			return nil, err
		}

		xm := x.Clone()
		xm[j] -= h
		fm, err := sys.Derive(xm, u, t)
		if err != nil {
			return nil, err
		}

		for i := 0; i < n; i++ {
			jac.Set(i, j, (fp[i]-fm[i])/(2*h))
		}
	}
	return jac, nil
}

// Mode is one eigenvalue of a linearization.
type Mode struct {
	Eigenvalue complex128
	// TimeConstant is -1/Re(λ) for a decaying mode and +Inf otherwise.
	TimeConstant float64
}

func (m Mode) Stable() bool { return real(m.Eigenvalue) < 0 }

// Modes factorizes jac and returns its modes, slowest first.
func Modes(jac mat.Matrix) ([]Mode, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(jac, mat.EigenNone); !ok {
		return nil, errors.New("eigendecomposition did not converge")
	}

	values := eig.Values(nil)
	modes := make([]Mode, len(values))
	for i, v := range values {
		tau := math.Inf(1)
		if real(v) < 0 {
			tau = -1 / real(v)
		}
		modes[i] = Mode{Eigenvalue: v, TimeConstant: tau}
	}

	sort.SliceStable(modes, func(i, j int) bool { return slower(modes[i], modes[j]) })
	return modes, nil
}

func slower(a, b Mode) bool {
	if a.TimeConstant != b.TimeConstant {
		return a.TimeConstant > b.TimeConstant
	}
	return cmplx.Abs(a.Eigenvalue) < cmplx.Abs(b.Eigenvalue)
}
