package psf

import (
	"fmt"
	"sync/atomic"
)

// CubicSplinePSF evaluates a calibrated tricubic spline PSF. It renders
// full frames and fixed-size ROIs, and exposes the analytic parameter
// Jacobian, Fisher information, and Cramer-Rao bounds per emitter.
//
// The zero value is not usable; construct with NewCubicSplinePSF.
type CubicSplinePSF struct {
	coeff *Coefficients
	grid  PixelGrid

	roiW, roiH int
	workers    int
	backend    Backend
	noise      NoiseModel
	invert     Inversion

	drops atomic.Int64
}

var (
	_ PSF            = (*CubicSplinePSF)(nil)
	_ ROIRenderer    = (*CubicSplinePSF)(nil)
	_ Differentiable = (*CubicSplinePSF)(nil)
)

// Option configures a CubicSplinePSF.
type Option func(*CubicSplinePSF)

// WithROISize sets the ROI width and height in pixels. Default 32x32.
func WithROISize(w, h int) Option {
	return func(p *CubicSplinePSF) { p.roiW, p.roiH = w, h }
}

// WithBackend selects the evaluation backend. Default is the scalar
// reference backend.
func WithBackend(b Backend) Option {
	return func(p *CubicSplinePSF) { p.backend = b }
}

// WithWorkers sets the worker count for backends that evaluate in
// parallel. Zero selects the backend default; backends without a
// worker pool ignore it.
func WithWorkers(n int) Option {
	return func(p *CubicSplinePSF) { p.workers = n }
}

// WithNoiseModel selects the pixel noise model used for Fisher
// information. Default PoissonNoise.
func WithNoiseModel(nm NoiseModel) Option {
	return func(p *CubicSplinePSF) { p.noise = nm }
}

// WithInversion selects the matrix inversion strategy used for CRLB
// extraction. Default LUInversion.
func WithInversion(inv Inversion) Option {
	return func(p *CubicSplinePSF) { p.invert = inv }
}

// NewCubicSplinePSF creates a spline PSF over the given calibration and
// pixel grid.
func NewCubicSplinePSF(coeff *Coefficients, grid PixelGrid, opts ...Option) (*CubicSplinePSF, error) {
	p := &CubicSplinePSF{
		coeff: coeff,
		grid:  grid,
		roiW:  32, roiH: 32,
		noise:  PoissonNoise{},
		invert: LUInversion,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.roiW <= 0 || p.roiH <= 0 {
		return nil, fmt.Errorf("psf: invalid ROI size %dx%d", p.roiW, p.roiH)
	}
	if p.backend == nil {
		p.backend = newScalarBackend()
	}
	if p.workers != 0 {
		if ws, ok := p.backend.(workerCountSetter); ok {
			ws.SetWorkers(p.workers)
		}
	}
	if err := p.backend.Init(); err != nil {
		return nil, fmt.Errorf("psf: init %s backend: %w", p.backend.Name(), err)
	}
	if err := p.backend.Upload(coeff); err != nil {
		return nil, fmt.Errorf("psf: upload to %s backend: %w", p.backend.Name(), err)
	}
	return p, nil
}

// Backend returns the name of the active backend.
func (p *CubicSplinePSF) Backend() string { return p.backend.Name() }

// ROISize returns the configured ROI dimensions.
func (p *CubicSplinePSF) ROISize() (w, h int) { return p.roiW, p.roiH }

// Close releases backend resources.
func (p *CubicSplinePSF) Close() { p.backend.Close() }

// Accelerated returns a new facade bound to the registered accelerated
// backend with the same calibration and options. Fails with
// ErrBackendUnavailable when the accel package is not imported.
// Switching is pure data transfer; results agree with the scalar
// backend to within 1e-7.
func (p *CubicSplinePSF) Accelerated() (*CubicSplinePSF, error) {
	b, err := newAccelerated()
	if err != nil {
		return nil, err
	}
	return p.rebind(b)
}

// Scalar returns a new facade bound to the scalar reference backend
// with the same calibration and options.
func (p *CubicSplinePSF) Scalar() (*CubicSplinePSF, error) {
	return p.rebind(newScalarBackend())
}

func (p *CubicSplinePSF) rebind(b Backend) (*CubicSplinePSF, error) {
	return NewCubicSplinePSF(p.coeff, p.grid,
		WithROISize(p.roiW, p.roiH),
		WithWorkers(p.workers),
		WithNoiseModel(p.noise),
		WithInversion(p.invert),
		WithBackend(b))
}

// DropCount returns the number of emitters dropped by the last Forward
// call.
func (p *CubicSplinePSF) DropCount() int { return int(p.drops.Load()) }

// buildRequest resolves emitter coordinates into a backend batch. keep
// selects the emitter subset; px0/py0 record each kept emitter's ROI
// origin in frame pixels.
func (p *CubicSplinePSF) buildRequest(e *EmitterSet, keep []int) (*EvalRequest, []int, []int) {
	n := len(keep)
	req := &EvalRequest{
		Coeff: p.coeff,
		ROIW:  p.roiW, ROIH: p.roiH,
		N:    n,
		XC:   make([]float64, n),
		YC:   make([]float64, n),
		Z:    make([]float64, n),
		Phot: make([]float64, n),
		Bg:   make([]float64, n),
		ROIs: make([]float64, n*p.roiW*p.roiH),
	}
	px0 := make([]int, n)
	py0 := make([]int, n)
	for j, i := range keep {
		x0, y0, xc, yc := p.grid.roiPlacement(e.XYZ[i][0], e.XYZ[i][1], p.roiW, p.roiH)
		px0[j], py0[j] = x0, y0
		req.XC[j], req.YC[j] = xc, yc
		req.Z[j] = e.XYZ[i][2]
		req.Phot[j] = e.phot(i)
		req.Bg[j] = e.bg(i)
	}
	return req, px0, py0
}

func allEmitters(n int) []int {
	keep := make([]int, n)
	for i := range keep {
		keep[i] = i
	}
	return keep
}

// Forward renders frames ixLow..ixHigh inclusive. Each emitter is
// evaluated on its ROI and composited into its frame; pixels falling
// outside the frame are clipped. Emitters outside the frame range or
// with no overlapping pixels are dropped and counted.
func (p *CubicSplinePSF) Forward(e *EmitterSet, ixLow, ixHigh int) (*Frames, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	nf, err := frameCount(ixLow, ixHigh)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, e.Len())
	slots := make([]int, 0, e.Len())
	dropped := 0
	for i := 0; i < e.Len(); i++ {
		slot, ok := frameSlot(e, i, ixLow, ixHigh)
		if !ok {
			dropped++
			continue
		}
		keep = append(keep, i)
		slots = append(slots, slot)
	}

	req, px0, py0 := p.buildRequest(e, keep)
	if err := p.backend.EvaluateROIs(req); err != nil {
		return nil, err
	}

	out := NewFrames(nf, p.grid.Height, p.grid.Width)
	plane := p.roiW * p.roiH
	for j := range keep {
		roi := req.ROIs[j*plane : (j+1)*plane]
		if !p.composite(out, slots[j], px0[j], py0[j], roi) {
			dropped++
		}
	}
	p.drops.Store(int64(dropped))
	if dropped > 0 {
		Logger().Warn("emitters dropped", "psf", "cubic-spline", "count", dropped)
	}
	return out, nil
}

// composite adds an ROI into frame slot at origin (px0, py0), clipping
// to the frame bounds. Reports whether any pixel landed in the frame.
func (p *CubicSplinePSF) composite(out *Frames, slot, px0, py0 int, roi []float64) bool {
	hit := false
	for ry := 0; ry < p.roiH; ry++ {
		fy := py0 + ry
		if fy < 0 || fy >= p.grid.Height {
			continue
		}
		for rx := 0; rx < p.roiW; rx++ {
			fx := px0 + rx
			if fx < 0 || fx >= p.grid.Width {
				continue
			}
			out.Add(slot, fy, fx, roi[ry*p.roiW+rx])
			hit = true
		}
	}
	return hit
}

// ForwardROIs renders one ROI per emitter, ignoring frame attribution
// and frame bounds.
func (p *CubicSplinePSF) ForwardROIs(e *EmitterSet) (*ROIStack, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	req, _, _ := p.buildRequest(e, allEmitters(e.Len()))
	if err := p.backend.EvaluateROIs(req); err != nil {
		return nil, err
	}
	out := &ROIStack{N: e.Len(), H: p.roiH, W: p.roiW, data: req.ROIs}
	return out, nil
}

// Derivative returns the analytic 5-parameter Jacobian and the model
// intensities per ROI. Parameter order is x, y, z, phot, bg; the bg
// plane is identically 1 and the phot plane is the unit-photon
// intensity.
func (p *CubicSplinePSF) Derivative(e *EmitterSet) (*DerivativeStack, *ROIStack, error) {
	if err := e.validate(); err != nil {
		return nil, nil, err
	}
	req, _, _ := p.buildRequest(e, allEmitters(e.Len()))
	req.Derivs = make([]float64, e.Len()*NumParams*p.roiW*p.roiH)
	if err := p.backend.EvaluateDerivatives(req); err != nil {
		return nil, nil, err
	}
	drv := &DerivativeStack{N: e.Len(), P: NumParams, H: p.roiH, W: p.roiW, data: req.Derivs}
	rois := &ROIStack{N: e.Len(), H: p.roiH, W: p.roiW, data: req.ROIs}
	return drv, rois, nil
}
