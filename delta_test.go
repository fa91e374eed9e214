package psf

import "testing"

func deltaGrid(pixelSize float64, n int) PixelGrid {
	hi := -0.5 + pixelSize*float64(n)
	return PixelGrid{
		XExtent: [2]float64{-0.5, hi},
		YExtent: [2]float64{-0.5, hi},
		Width:   n, Height: n,
	}
}

// frameValues collects the nonzero pixels of one frame.
func frameValues(s *Frames, f int) map[[2]int]float64 {
	out := map[[2]int]float64{}
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			if v := s.At(f, y, x); v != 0 {
				out[[2]int{x, y}] = v
			}
		}
	}
	return out
}

func TestDeltaPSFSinglePixel(t *testing.T) {
	cases := []struct {
		name   string
		grid   PixelGrid
		x, y   float64
		ix, iy int
	}{
		{"unit pixels", deltaGrid(1, 64), 15, 20, 15, 20},
		{"unit pixels origin", deltaGrid(1, 64), 0, 0, 0, 0},
		{"half pixels", deltaGrid(0.5, 64), 15, 10, 31, 21},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewDeltaPSF(tc.grid)
			e := &EmitterSet{
				XYZ:  [][3]float64{{tc.x, tc.y, 0}},
				Phot: []float64{777},
			}
			frames, err := p.Forward(e, 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			got := frameValues(frames, 0)
			if len(got) != 1 {
				t.Fatalf("nonzero pixels %v, want exactly one", got)
			}
			if got[[2]int{tc.ix, tc.iy}] != 777 {
				t.Errorf("pixel (%d,%d) missing photon value: %v", tc.ix, tc.iy, got)
			}
		})
	}
}

func TestDeltaPSFOutputValuesArePhotonCounts(t *testing.T) {
	p := NewDeltaPSF(deltaGrid(1, 32))
	e := &EmitterSet{
		XYZ:  [][3]float64{{5.2, 5.7, 0}, {20.1, 8.9, 0}, {12, 30, 0}},
		Phot: []float64{11, 22, 33},
	}
	frames, err := p.Forward(e, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	allowed := map[float64]bool{11: true, 22: true, 33: true}
	for _, v := range frameValues(frames, 0) {
		if !allowed[v] {
			t.Errorf("output value %g not in input photon set", v)
		}
	}
}

func TestDeltaPSFCollisionBrightestWins(t *testing.T) {
	p := NewDeltaPSF(deltaGrid(1, 16))
	e := &EmitterSet{
		XYZ:  [][3]float64{{8.2, 8.3, 0}, {8.4, 8.1, 0}},
		Phot: []float64{5, 9},
	}
	frames, err := p.Forward(e, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := frames.At(0, 8, 8); got != 9 {
		t.Errorf("collision pixel = %g, want brightest emitter 9", got)
	}
}

func TestDeltaPSFRejectsInvertedFrameRange(t *testing.T) {
	p := NewDeltaPSF(deltaGrid(1, 16))
	e := &EmitterSet{XYZ: [][3]float64{{4, 4, 0}}}
	if _, err := p.Forward(e, 3, 1); err == nil {
		t.Fatal("Forward with ixHigh < ixLow should fail")
	}
}

func TestDeltaPSFFrameAttributionAndDrops(t *testing.T) {
	p := NewDeltaPSF(deltaGrid(1, 16))
	e := &EmitterSet{
		XYZ:     [][3]float64{{4, 4, 0}, {5, 5, 0}, {6, 6, 0}, {200, 4, 0}},
		Phot:    []float64{1, 2, 3, 4},
		FrameIx: []int{1, 2, 7, 1},
	}
	frames, err := p.Forward(e, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if frames.F != 3 {
		t.Fatalf("frame count %d, want 3", frames.F)
	}
	if frames.At(0, 4, 4) != 1 || frames.At(1, 5, 5) != 2 {
		t.Error("emitters landed in wrong frames")
	}
	// Frame 7 is out of range, x=200 is out of bounds.
	if got := p.DropCount(); got != 2 {
		t.Errorf("DropCount() = %d, want 2", got)
	}
}
