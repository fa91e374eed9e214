package cubic

import (
	"math"
	"math/rand"
	"testing"
)

// randomTensor builds a small tensor with deterministic pseudo-random
// coefficients.
func randomTensor(nx, ny, nz int, seed int64) *Tensor {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, nx*ny*nz*NumTerms)
	for i := range data {
		data[i] = rng.Float64() - 0.5
	}
	return &Tensor{
		NX: nx, NY: ny, NZ: nz,
		Ref0:  [3]float64{float64(nx) / 2, float64(ny) / 2, float64(nz) / 2},
		Voxel: [3]float64{1, 1, 10},
		Data:  data,
	}
}

// evalCell evaluates one cell's polynomial directly with math.Pow,
// independent of the monomial-vector path.
func evalCell(coeff []float64, fx, fy, fz float64) float64 {
	s := 0.0
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			for c := 0; c < 4; c++ {
				s += coeff[a*16+b*4+c] *
					math.Pow(fz, float64(a)) * math.Pow(fy, float64(b)) * math.Pow(fx, float64(c))
			}
		}
	}
	return s
}

func TestDeltaComputeMatchesDirectEvaluation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	coeff := make([]float64, NumTerms)
	for i := range coeff {
		coeff[i] = rng.Float64() - 0.5
	}

	var d Delta
	for _, frac := range [][3]float64{
		{0, 0, 0},
		{0.5, 0.5, 0.5},
		{0.999, 0.001, 0.25},
		{0.125, 0.875, 0.625},
	} {
		d.Compute(frac[0], frac[1], frac[2])
		got := dot(coeff, &d.F)
		want := evalCell(coeff, frac[0], frac[1], frac[2])
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Compute(%v): value %g, want %g", frac, got, want)
		}
	}
}

func TestEvalROIAppliesPhotonsAndBackground(t *testing.T) {
	tensor := randomTensor(8, 8, 8, 11)
	const w, h = 4, 4

	unit := make([]float64, w*h)
	EvalROI(tensor, 0.3, -0.2, 5, 1, 0, w, h, unit)

	scaled := make([]float64, w*h)
	EvalROI(tensor, 0.3, -0.2, 5, 250, 7.5, w, h, scaled)

	for i := range unit {
		want := 250*unit[i] + 7.5
		if math.Abs(scaled[i]-want) > 1e-9 {
			t.Fatalf("pixel %d: %g, want %g", i, scaled[i], want)
		}
	}
}

func TestEvalROIDerivsBackgroundPlaneIsOne(t *testing.T) {
	tensor := randomTensor(8, 8, 8, 13)
	const w, h = 5, 3
	out := make([]float64, w*h)
	drv := make([]float64, NumParams*w*h)
	EvalROIDerivs(tensor, -0.4, 0.1, -12, 900, 5, w, h, out, drv)

	plane := w * h
	for i := 0; i < plane; i++ {
		if got := drv[ParamBg*plane+i]; got != 1 {
			t.Fatalf("bg derivative at pixel %d = %g, want exactly 1", i, got)
		}
	}
}

func TestEvalROIDerivsPhotonPlaneIsUnitIntensity(t *testing.T) {
	tensor := randomTensor(8, 8, 8, 17)
	const w, h = 4, 4
	const phot, bg = 321.0, 2.5

	out := make([]float64, w*h)
	drv := make([]float64, NumParams*w*h)
	EvalROIDerivs(tensor, 0.2, 0.6, 8, phot, bg, w, h, out, drv)

	plane := w * h
	for i := 0; i < plane; i++ {
		unit := (out[i] - bg) / phot
		if math.Abs(drv[ParamPhot*plane+i]-unit) > 1e-12 {
			t.Fatalf("phot derivative at pixel %d = %g, want %g",
				i, drv[ParamPhot*plane+i], unit)
		}
	}
}

func TestEvalROIDerivsMatchFiniteDifferences(t *testing.T) {
	tensor := randomTensor(12, 12, 12, 23)
	const w, h = 4, 4
	const phot, bg = 1000.0, 10.0
	// Offsets keep the +-step evaluations inside one spline cell so the
	// central difference sees a single smooth polynomial.
	const xc, yc, z = 0.41, -0.33, 17.0
	const step = 1e-5

	out := make([]float64, w*h)
	drv := make([]float64, NumParams*w*h)
	EvalROIDerivs(tensor, xc, yc, z, phot, bg, w, h, out, drv)

	plane := w * h
	plus := make([]float64, plane)
	minus := make([]float64, plane)

	cases := []struct {
		name  string
		param int
		eval  func(d float64, dst []float64)
		tol   float64
	}{
		{"x", ParamX, func(d float64, dst []float64) {
			EvalROI(tensor, xc+d, yc, z, phot, bg, w, h, dst)
		}, 1e-4},
		{"y", ParamY, func(d float64, dst []float64) {
			EvalROI(tensor, xc, yc+d, z, phot, bg, w, h, dst)
		}, 1e-4},
		{"z", ParamZ, func(d float64, dst []float64) {
			EvalROI(tensor, xc, yc, z+d, phot, bg, w, h, dst)
		}, 1e-4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.eval(step, plus)
			tc.eval(-step, minus)
			for i := 0; i < plane; i++ {
				fd := (plus[i] - minus[i]) / (2 * step)
				if math.Abs(drv[tc.param*plane+i]-fd) > tc.tol {
					t.Fatalf("pixel %d: analytic %g, finite difference %g",
						i, drv[tc.param*plane+i], fd)
				}
			}
		})
	}
}

func TestEvalROIClampsAtTensorEdge(t *testing.T) {
	tensor := randomTensor(6, 6, 6, 29)
	const w, h = 8, 8
	out := make([]float64, w*h)

	// Far off-centre placement pushes cell indices outside the tensor;
	// evaluation must stay in bounds and finite.
	EvalROI(tensor, 50, -50, 400, 100, 1, w, h, out)
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("pixel %d not finite: %g", i, v)
		}
	}
}

func BenchmarkEvalROI(b *testing.B) {
	tensor := randomTensor(40, 40, 64, 31)
	const w, h = 32, 32
	out := make([]float64, w*h)
	b.ReportAllocs()
	for b.Loop() {
		EvalROI(tensor, 0.3, -0.1, 25, 1000, 10, w, h, out)
	}
}

func BenchmarkEvalROIDerivs(b *testing.B) {
	tensor := randomTensor(40, 40, 64, 37)
	const w, h = 32, 32
	out := make([]float64, w*h)
	drv := make([]float64, NumParams*w*h)
	b.ReportAllocs()
	for b.Loop() {
		EvalROIDerivs(tensor, 0.3, -0.1, 25, 1000, 10, w, h, out, drv)
	}
}
