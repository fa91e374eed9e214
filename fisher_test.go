package psf

import (
	"math"
	"testing"
)

func TestFisherMatrixSymmetricPositiveDiagonal(t *testing.T) {
	m := testModel(t)
	fisher, _, err := m.Fisher(testEmitters())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < fisher.N; i++ {
		for a := 0; a < NumParams; a++ {
			if fisher.At(i, a, a) <= 0 {
				t.Errorf("emitter %d: F[%d][%d] = %g, want > 0", i, a, a, fisher.At(i, a, a))
			}
			for b := 0; b < NumParams; b++ {
				if fisher.At(i, a, b) != fisher.At(i, b, a) {
					t.Errorf("emitter %d: Fisher not symmetric at (%d,%d)", i, a, b)
				}
			}
		}
	}
}

func TestCRLBWithinReferenceWindows(t *testing.T) {
	m := testModel(t)
	crlb, _, err := m.CRLB(testEmitters())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < crlb.N; i++ {
		for _, p := range []int{ParamX, ParamY} {
			v := crlb.At(i, p)
			if v < 0.01*0.01 || v > 0.1*0.1 {
				t.Errorf("emitter %d param %d: lateral CRLB %g outside [1e-4, 1e-2] px^2", i, p, v)
			}
		}
		vz := crlb.At(i, ParamZ)
		if vz < 0.02*0.02 || vz > 100.0*100.0 {
			t.Errorf("emitter %d: axial CRLB %g outside [4e-4, 1e4]", i, vz)
		}
		if crlb.At(i, ParamPhot) <= 0 || crlb.At(i, ParamBg) <= 0 {
			t.Errorf("emitter %d: phot/bg CRLB not positive", i)
		}
	}
}

func TestCRLBInversionStrategiesAgree(t *testing.T) {
	e := testEmitters()
	lu := testModel(t)
	reg := testModel(t, WithInversion(RegularizedInversion(1e-12)))

	a, _, err := lu.CRLB(e)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := reg.CRLB(e)
	if err != nil {
		t.Fatal(err)
	}

	// Per-parameter absolute tolerances: the bounds span many orders
	// of magnitude across parameters, so the acceptable disagreement
	// does too.
	tol := [NumParams]float64{1e-4, 1e-4, 1e-1, 1e2, 1e-3}
	for i := 0; i < a.N; i++ {
		for p := 0; p < NumParams; p++ {
			if d := math.Abs(a.At(i, p) - b.At(i, p)); d > tol[p] {
				t.Errorf("emitter %d param %d: LU %g, regularized %g (|diff| %g > %g)",
					i, p, a.At(i, p), b.At(i, p), d, tol[p])
			}
		}
	}
}

func TestCRLBSingularFisherYieldsHugeBounds(t *testing.T) {
	m := testModel(t)
	// A dark emitter carries no position information: the x/y/z rows
	// of the Fisher matrix vanish and the bounds must blow up rather
	// than error.
	e := &EmitterSet{
		XYZ:  [][3]float64{{32, 32, 0}},
		Phot: []float64{0},
		Bg:   []float64{10},
	}
	crlb, _, err := m.CRLB(e)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []int{ParamX, ParamY, ParamZ} {
		v := crlb.At(0, p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("param %d: CRLB not finite: %g", p, v)
		}
		if v < 1e6 {
			t.Errorf("param %d: CRLB %g, want huge for a dark emitter", p, v)
		}
	}
}

func TestCRLBImprovesWithPhotons(t *testing.T) {
	m := testModel(t)
	dim := &EmitterSet{XYZ: [][3]float64{{32, 32, 50}}, Phot: []float64{500}, Bg: []float64{10}}
	bright := &EmitterSet{XYZ: [][3]float64{{32, 32, 50}}, Phot: []float64{20000}, Bg: []float64{10}}

	a, _, err := m.CRLB(dim)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := m.CRLB(bright)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []int{ParamX, ParamY, ParamZ} {
		if b.At(0, p) >= a.At(0, p) {
			t.Errorf("param %d: bright CRLB %g not below dim CRLB %g",
				p, b.At(0, p), a.At(0, p))
		}
	}
}

func TestFisherGaussianNoiseModel(t *testing.T) {
	e := testEmitters()
	poisson := testModel(t)
	gauss := testModel(t, WithNoiseModel(GaussianNoise{SigmaSquared: 4}))

	a, _, err := poisson.Fisher(e)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := gauss.Fisher(e)
	if err != nil {
		t.Fatal(err)
	}
	diff := false
	for i := range a.Matrix(0) {
		if a.Matrix(0)[i] != b.Matrix(0)[i] {
			diff = true
			break
		}
	}
	if !diff {
		t.Error("noise model change did not affect the Fisher matrix")
	}
}

func BenchmarkCRLB(b *testing.B) {
	m := testModel(b)
	e := testEmitters()
	b.ReportAllocs()
	for b.Loop() {
		if _, _, err := m.CRLB(e); err != nil {
			b.Fatal(err)
		}
	}
}
