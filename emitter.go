package psf

// EmitterSet holds N point emitters as parallel attribute slices.
// XYZ is mandatory; Phot, Bg, and FrameIx are optional and default to
// 1.0, 0.0, and frame 0 respectively when nil. Partially filled slices
// are rejected rather than truncated.
type EmitterSet struct {
	// XYZ holds positions: x, y in frame extent units, z in the
	// calibration's axial units (zero at the calibration focus).
	XYZ [][3]float64

	// Phot holds expected photon counts per emitter.
	Phot []float64

	// Bg holds per-emitter uniform background levels.
	Bg []float64

	// FrameIx assigns each emitter to an output frame.
	FrameIx []int
}

// Len returns the number of emitters.
func (e *EmitterSet) Len() int { return len(e.XYZ) }

// validate checks that every non-nil attribute slice matches XYZ in
// length.
func (e *EmitterSet) validate() error {
	n := len(e.XYZ)
	if e.Phot != nil && len(e.Phot) != n {
		return &ShapeMismatchError{What: "emitter photons", Want: n, Got: len(e.Phot)}
	}
	if e.Bg != nil && len(e.Bg) != n {
		return &ShapeMismatchError{What: "emitter background", Want: n, Got: len(e.Bg)}
	}
	if e.FrameIx != nil && len(e.FrameIx) != n {
		return &ShapeMismatchError{What: "emitter frame indices", Want: n, Got: len(e.FrameIx)}
	}
	return nil
}

// phot returns emitter i's photon count, defaulting to 1.
func (e *EmitterSet) phot(i int) float64 {
	if e.Phot == nil {
		return 1
	}
	return e.Phot[i]
}

// bg returns emitter i's background level, defaulting to 0.
func (e *EmitterSet) bg(i int) float64 {
	if e.Bg == nil {
		return 0
	}
	return e.Bg[i]
}

// frame returns emitter i's frame index, defaulting to 0.
func (e *EmitterSet) frame(i int) int {
	if e.FrameIx == nil {
		return 0
	}
	return e.FrameIx[i]
}
