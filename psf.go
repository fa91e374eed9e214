package psf

import (
	"fmt"

	"github.com/smlmkit/psf/internal/cubic"
)

// NumParams is the fit parameter count: x, y, z, phot, bg.
const NumParams = cubic.NumParams

// Parameter indices into derivative stacks, Fisher matrices, and CRLB
// vectors.
const (
	ParamX    = cubic.ParamX
	ParamY    = cubic.ParamY
	ParamZ    = cubic.ParamZ
	ParamPhot = cubic.ParamPhot
	ParamBg   = cubic.ParamBg
)

// PSF renders emitters into full frames. Forward renders the frames
// ixLow..ixHigh inclusive; emitters attributed to frames outside that
// range are dropped, not clipped into the nearest frame.
type PSF interface {
	Forward(e *EmitterSet, ixLow, ixHigh int) (*Frames, error)
}

// ROIRenderer renders one fixed-size region of interest per emitter.
type ROIRenderer interface {
	ForwardROIs(e *EmitterSet) (*ROIStack, error)
}

// Differentiable exposes the analytic parameter Jacobian per ROI.
type Differentiable interface {
	Derivative(e *EmitterSet) (*DerivativeStack, *ROIStack, error)
}

// frameCount validates a frame range and returns the number of output
// frames. An inverted range is caller misuse and propagates as an
// error.
func frameCount(ixLow, ixHigh int) (int, error) {
	if ixHigh < ixLow {
		return 0, fmt.Errorf("psf: invalid frame range [%d, %d]", ixLow, ixHigh)
	}
	return ixHigh - ixLow + 1, nil
}

// frameSlot maps an emitter to its output frame, dropping emitters
// outside ixLow..ixHigh. Returns the zero-based output slot and
// whether the emitter is kept.
func frameSlot(e *EmitterSet, i, ixLow, ixHigh int) (int, bool) {
	f := e.frame(i)
	if f < ixLow || f > ixHigh {
		return 0, false
	}
	return f - ixLow, true
}
