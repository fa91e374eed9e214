package psf

import (
	"errors"
	"sync"
)

// EvalRequest is a batch of emitter ROI evaluations handed to a
// backend. Coordinates are pre-resolved by the facade: XC and YC are
// in-ROI offsets from the ROI origin pixel centre in pixel units, Z is
// the axial position in calibration units. ROIs receives N*ROIH*ROIW
// intensities; Derivs, when non-nil, receives the N*5*ROIH*ROIW
// Jacobian in parameter order x, y, z, phot, bg.
type EvalRequest struct {
	Coeff      *Coefficients
	ROIW, ROIH int

	N          int
	XC, YC, Z  []float64
	Phot, Bg   []float64

	ROIs   []float64
	Derivs []float64
}

// Backend evaluates batches of spline ROIs. Implementations must be
// numerically interchangeable: any two backends agree elementwise to
// within 1e-7 on intensities and derivatives, so switching backends is
// pure data transfer.
type Backend interface {
	// Name identifies the backend (e.g. "scalar", "accel").
	Name() string

	// Init acquires backend resources. Called once before first use.
	Init() error

	// Close releases backend resources.
	Close()

	// Upload makes a coefficient tensor resident on the backend.
	// A pure data transfer; no derived state may change.
	Upload(c *Coefficients) error

	// EvaluateROIs fills req.ROIs with per-pixel intensities.
	EvaluateROIs(req *EvalRequest) error

	// EvaluateDerivatives fills req.ROIs and req.Derivs.
	EvaluateDerivatives(req *EvalRequest) error
}

// AcceleratedFactory constructs a fresh accelerated backend instance.
type AcceleratedFactory interface {
	New() Backend
}

// workerCountSetter is implemented by backends with a configurable
// worker pool. Applied before Init.
type workerCountSetter interface {
	SetWorkers(n int)
}

var (
	backendMu          sync.RWMutex
	acceleratedFactory AcceleratedFactory
)

// RegisterAccelerated installs the accelerated backend factory. Called
// from the accel package's init; user code enables it by blank import:
//
//	import _ "github.com/smlmkit/psf/accel"
//
// Only one factory can be registered; later calls replace earlier ones.
func RegisterAccelerated(f AcceleratedFactory) error {
	if f == nil {
		return errors.New("psf: accelerated factory must not be nil")
	}
	backendMu.Lock()
	acceleratedFactory = f
	backendMu.Unlock()
	propagateLogger(f, Logger())
	return nil
}

// AcceleratedAvailable reports whether an accelerated backend factory
// is registered.
func AcceleratedAvailable() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return acceleratedFactory != nil
}

// newAccelerated constructs an accelerated backend, or fails with
// ErrBackendUnavailable when none is registered.
func newAccelerated() (Backend, error) {
	backendMu.RLock()
	f := acceleratedFactory
	backendMu.RUnlock()
	if f == nil {
		return nil, ErrBackendUnavailable
	}
	return f.New(), nil
}
