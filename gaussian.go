package psf

import (
	"math"
	"sync/atomic"
)

// GaussianExpect renders emitters as the expected photon count of a
// pixel-integrated Gaussian. With AxialDepth > 0 the widths defocus
// with z, modelling an astigmatic optical path; otherwise the model is
// purely two-dimensional and z is ignored.
type GaussianExpect struct {
	Grid PixelGrid

	// Sigma0 is the in-focus width per lateral axis, in extent units.
	Sigma0 [2]float64

	// FocalShift offsets each axis focus along z, producing the
	// astigmatic x/y width imbalance used for axial encoding.
	FocalShift [2]float64

	// AxialDepth is the defocus depth scale. Zero selects the 2-D
	// model.
	AxialDepth float64

	// PeakWeight scales each emitter so its peak pixel, rather than
	// its integral, equals the photon count.
	PeakWeight bool

	drops atomic.Int64
}

var _ PSF = (*GaussianExpect)(nil)

// NewGaussianExpect creates a 2-D Gaussian expectation renderer.
func NewGaussianExpect(grid PixelGrid, sigma0 [2]float64) *GaussianExpect {
	return &GaussianExpect{Grid: grid, Sigma0: sigma0}
}

// sigmaAt returns the lateral widths at axial position z.
func (p *GaussianExpect) sigmaAt(z float64) (sx, sy float64) {
	sx, sy = p.Sigma0[0], p.Sigma0[1]
	if p.AxialDepth <= 0 {
		return sx, sy
	}
	zx := (z - p.FocalShift[0]) / p.AxialDepth
	zy := (z - p.FocalShift[1]) / p.AxialDepth
	return sx * math.Sqrt(1+zx*zx), sy * math.Sqrt(1+zy*zy)
}

// pixelMass integrates a unit 1-D Gaussian centred at c with width s
// over the pixel [lo, hi].
func pixelMass(lo, hi, c, s float64) float64 {
	inv := 1 / (math.Sqrt2 * s)
	return 0.5 * (math.Erf((hi-c)*inv) - math.Erf((lo-c)*inv))
}

// Forward renders frames ixLow..ixHigh inclusive. Out-of-range
// emitters are dropped and counted; emitters outside the extents still
// contribute their in-frame tail.
func (p *GaussianExpect) Forward(e *EmitterSet, ixLow, ixHigh int) (*Frames, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	nf, err := frameCount(ixLow, ixHigh)
	if err != nil {
		return nil, err
	}
	out := NewFrames(nf, p.Grid.Height, p.Grid.Width)
	pw, ph := p.Grid.PixelSize()
	dropped := 0
	for i := 0; i < e.Len(); i++ {
		slot, ok := frameSlot(e, i, ixLow, ixHigh)
		if !ok {
			dropped++
			continue
		}
		x, y, z := e.XYZ[i][0], e.XYZ[i][1], e.XYZ[i][2]
		sx, sy := p.sigmaAt(z)
		weight := e.phot(i)
		if p.PeakWeight {
			// Scale so the value of a centre pixel equals phot.
			peak := pixelMass(-pw/2, pw/2, 0, sx) * pixelMass(-ph/2, ph/2, 0, sy)
			if peak > 0 {
				weight /= peak
			}
		}
		// The Gaussian integral is negligible beyond a few sigma, so
		// only a window of pixels around the emitter is visited.
		rx := int(math.Ceil(5*sx/pw)) + 1
		ry := int(math.Ceil(5*sy/ph)) + 1
		cx, cy := p.Grid.Locate(x, y)
		for iy := cy - ry; iy <= cy+ry; iy++ {
			if iy < 0 || iy >= p.Grid.Height {
				continue
			}
			ylo := p.Grid.YExtent[0] + float64(iy)*ph
			my := pixelMass(ylo, ylo+ph, y, sy)
			for ix := cx - rx; ix <= cx+rx; ix++ {
				if ix < 0 || ix >= p.Grid.Width {
					continue
				}
				xlo := p.Grid.XExtent[0] + float64(ix)*pw
				mx := pixelMass(xlo, xlo+pw, x, sx)
				out.Add(slot, iy, ix, weight*mx*my)
			}
		}
	}
	p.drops.Store(int64(dropped))
	if dropped > 0 {
		Logger().Warn("emitters dropped", "psf", "gaussian", "count", dropped)
	}
	return out, nil
}

// DropCount returns the number of emitters dropped by the last Forward
// call.
func (p *GaussianExpect) DropCount() int { return int(p.drops.Load()) }
