package psf

import (
	"errors"
	"testing"
)

func TestEmitterSetDefaults(t *testing.T) {
	e := &EmitterSet{XYZ: [][3]float64{{1, 2, 3}, {4, 5, 6}}}
	if e.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", e.Len())
	}
	if e.phot(0) != 1 {
		t.Errorf("default phot %g, want 1", e.phot(0))
	}
	if e.bg(1) != 0 {
		t.Errorf("default bg %g, want 0", e.bg(1))
	}
	if e.frame(1) != 0 {
		t.Errorf("default frame %d, want 0", e.frame(1))
	}
}

func TestEmitterSetValidate(t *testing.T) {
	xyz := [][3]float64{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}
	cases := []struct {
		name string
		e    EmitterSet
		ok   bool
	}{
		{"positions only", EmitterSet{XYZ: xyz}, true},
		{"full attributes", EmitterSet{
			XYZ: xyz, Phot: []float64{1, 2, 3}, Bg: []float64{0, 0, 0}, FrameIx: []int{0, 1, 2},
		}, true},
		{"short phot", EmitterSet{XYZ: xyz, Phot: []float64{1}}, false},
		{"long bg", EmitterSet{XYZ: xyz, Bg: []float64{0, 0, 0, 0}}, false},
		{"short frames", EmitterSet{XYZ: xyz, FrameIx: []int{0}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.e.validate()
			if tc.ok && err != nil {
				t.Fatalf("validate() = %v, want nil", err)
			}
			if !tc.ok {
				var serr *ShapeMismatchError
				if !errors.As(err, &serr) {
					t.Fatalf("validate() = %v, want *ShapeMismatchError", err)
				}
			}
		})
	}
}
