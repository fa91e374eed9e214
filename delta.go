package psf

import "sync/atomic"

// DeltaPSF renders each emitter as an impulse on its containing pixel.
// It is the target generator for learned localization models: output
// pixels hold either zero or an input photon value, never a blend.
// When two emitters land on the same pixel of the same frame, the
// brighter one wins.
type DeltaPSF struct {
	Grid PixelGrid

	drops atomic.Int64
}

var _ PSF = (*DeltaPSF)(nil)

// NewDeltaPSF creates a delta renderer on the given grid.
func NewDeltaPSF(grid PixelGrid) *DeltaPSF {
	return &DeltaPSF{Grid: grid}
}

// Forward renders frames ixLow..ixHigh inclusive. Emitters outside the
// frame bounds or the frame range are dropped and counted, never an
// error.
func (p *DeltaPSF) Forward(e *EmitterSet, ixLow, ixHigh int) (*Frames, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	nf, err := frameCount(ixLow, ixHigh)
	if err != nil {
		return nil, err
	}
	out := NewFrames(nf, p.Grid.Height, p.Grid.Width)
	dropped := 0
	for i := 0; i < e.Len(); i++ {
		slot, ok := frameSlot(e, i, ixLow, ixHigh)
		if !ok {
			dropped++
			continue
		}
		ix, iy := p.Grid.Locate(e.XYZ[i][0], e.XYZ[i][1])
		if !p.Grid.Contains(ix, iy) {
			dropped++
			continue
		}
		phot := e.phot(i)
		if cur := out.At(slot, iy, ix); phot > cur {
			out.Add(slot, iy, ix, phot-cur)
		}
	}
	p.drops.Store(int64(dropped))
	if dropped > 0 {
		Logger().Warn("emitters dropped", "psf", "delta", "count", dropped)
	}
	return out, nil
}

// DropCount returns the number of emitters dropped by the last Forward
// call.
func (p *DeltaPSF) DropCount() int { return int(p.drops.Load()) }
