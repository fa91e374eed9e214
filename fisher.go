package psf

import "github.com/smlmkit/psf/internal/mat"

// NoiseModel maps a pixel's expected intensity to its variance, used
// as the Fisher information weighting.
type NoiseModel interface {
	Variance(model float64) float64
}

// PoissonNoise models shot-noise-limited detection: the variance of a
// pixel equals its expected count.
type PoissonNoise struct{}

// varianceFloor guards the Fisher weighting against zero-intensity
// pixels in background-free models.
const varianceFloor = 1e-12

func (PoissonNoise) Variance(model float64) float64 {
	if model < varianceFloor {
		return varianceFloor
	}
	return model
}

// GaussianNoise models constant read noise with the given variance.
type GaussianNoise struct {
	SigmaSquared float64
}

func (n GaussianNoise) Variance(float64) float64 {
	if n.SigmaSquared < varianceFloor {
		return varianceFloor
	}
	return n.SigmaSquared
}

// Inversion inverts the n*n row-major matrix f into out. Strategies
// must tolerate singular input: a non-informative Fisher matrix yields
// huge bounds, never an error.
type Inversion func(f []float64, n int, out []float64)

// LUInversion inverts via LU decomposition with partial pivoting.
// Singular pivots are substituted with a tiny value. This is the
// default CRLB inversion.
var LUInversion Inversion = mat.InvertLU

// RegularizedInversion returns a Tikhonov-damped pseudo-inverse
// strategy, useful for cross-checking LU results on ill-conditioned
// Fisher matrices.
func RegularizedInversion(lambda float64) Inversion {
	return func(f []float64, n int, out []float64) {
		mat.InvertRegularized(f, n, lambda, out)
	}
}

// Fisher computes the per-emitter Fisher information matrix
//
//	F[p][q] = sum_px d_p(px) * d_q(px) / Var(model(px))
//
// under the configured noise model, along with the model ROIs.
func (p *CubicSplinePSF) Fisher(e *EmitterSet) (*FisherStack, *ROIStack, error) {
	drv, rois, err := p.Derivative(e)
	if err != nil {
		return nil, nil, err
	}
	n := e.Len()
	plane := p.roiW * p.roiH
	fisher := NewFisherStack(n)
	for i := 0; i < n; i++ {
		roi := rois.ROI(i)
		jac := drv.Emitter(i)
		m := fisher.Matrix(i)
		for px := 0; px < plane; px++ {
			w := 1 / p.noise.Variance(roi[px])
			for a := 0; a < NumParams; a++ {
				da := jac[a*plane+px]
				if da == 0 {
					continue
				}
				for b := a; b < NumParams; b++ {
					m[a*NumParams+b] += da * jac[b*plane+px] * w
				}
			}
		}
		for a := 1; a < NumParams; a++ {
			for b := 0; b < a; b++ {
				m[a*NumParams+b] = m[b*NumParams+a]
			}
		}
	}
	return fisher, rois, nil
}

// CRLB computes the Cramer-Rao lower bound per emitter and parameter:
// the diagonal of the inverse Fisher matrix, in squared parameter
// units. The inversion strategy is configurable via WithInversion.
func (p *CubicSplinePSF) CRLB(e *EmitterSet) (*CRLBStack, *ROIStack, error) {
	fisher, rois, err := p.Fisher(e)
	if err != nil {
		return nil, nil, err
	}
	n := e.Len()
	out := NewCRLBStack(n)
	inv := make([]float64, NumParams*NumParams)
	for i := 0; i < n; i++ {
		p.invert(fisher.Matrix(i), NumParams, inv)
		v := out.Vector(i)
		for a := 0; a < NumParams; a++ {
			v[a] = inv[a*NumParams+a]
		}
	}
	return out, rois, nil
}
