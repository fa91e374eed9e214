// Package splinetest builds a synthetic, well-sampled spline
// calibration for tests: an astigmatic Gaussian bead whose lateral
// widths defocus in opposite directions along z. Each z knot carries a
// normalized lateral profile tabulated as Catmull-Rom cubics, and the
// z axis interpolates across knots, so the tensor is exact in the
// 64-term tricubic basis while the PSF shape (not just its amplitude)
// encodes z.
package splinetest

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/smlmkit/psf/internal/cubic"
)

// Synthetic calibration geometry. Lateral in-focus width 1.5 px, focal
// planes of the two axes offset by +-10 voxels around the anchor, and
// a 20-voxel defocus depth. One axial voxel spans 10 calibration
// units.
const (
	NX, NY, NZ = 40, 40, 64
	Sigma0     = 1.5
	FocalShift = 10.0
	Depth      = 20.0
)

// Ref0 is the emitter anchor in spline grid coordinates.
var Ref0 = [3]float64{20, 20, 32}

// Voxel is the calibration voxel size.
var Voxel = [3]float64{1, 1, 10}

// crBasis maps four consecutive knot values to the coefficients of the
// Catmull-Rom segment between the middle two: row a holds the knot
// weights of the t^a coefficient.
var crBasis = [4][4]float64{
	{0, 1, 0, 0},
	{-0.5, 0, 0.5, 0},
	{1, -2.5, 2, -0.5},
	{-0.5, 1.5, -1.5, 0.5},
}

// sigmaAt returns the lateral widths at z knot k: the axes defocus in
// opposite directions, which is what makes z observable.
func sigmaAt(k float64) (sx, sy float64) {
	zx := (k - Ref0[2] - FocalShift) / Depth
	zy := (k - Ref0[2] + FocalShift) / Depth
	return Sigma0 * math.Sqrt(1+zx*zx), Sigma0 * math.Sqrt(1+zy*zy)
}

// axisCoeffs tabulates per-cell Catmull-Rom coefficients for a
// normalized Gaussian profile sampled at integer knots.
func axisCoeffs(n int, centre, sigma float64) [][4]float64 {
	norm := 1 / (sigma * math.Sqrt(2*math.Pi))
	sample := func(i int) float64 {
		d := (float64(i) - centre) / sigma
		return norm * math.Exp(-0.5*d*d)
	}
	out := make([][4]float64, n)
	for i := 0; i < n; i++ {
		p0, p1, p2, p3 := sample(i-1), sample(i), sample(i+1), sample(i+2)
		for a := 0; a < 4; a++ {
			out[i][a] = crBasis[a][0]*p0 + crBasis[a][1]*p1 + crBasis[a][2]*p2 + crBasis[a][3]*p3
		}
	}
	return out
}

// build assembles a coefficient tensor of the given dimensions around
// the given anchor.
func build(nx, ny, nz int, ref0 [3]float64) *cubic.Tensor {
	// Per-z-knot lateral tables, knots -1..nz+2.
	nk := nz + 4
	cx := make([][][4]float64, nk)
	cy := make([][][4]float64, nk)
	for m := 0; m < nk; m++ {
		sx, sy := sigmaAt(float64(m - 1))
		cx[m] = axisCoeffs(nx, ref0[0], sx)
		cy[m] = axisCoeffs(ny, ref0[1], sy)
	}

	data := make([]float64, nx*ny*nz*cubic.NumTerms)
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			for iz := 0; iz < nz; iz++ {
				base := ((ix*ny+iy)*nz + iz) * cubic.NumTerms
				for a := 0; a < 4; a++ {
					for b := 0; b < 4; b++ {
						for c := 0; c < 4; c++ {
							s := 0.0
							for m := 0; m < 4; m++ {
								k := iz + m // knot iz-1+m at table offset +1
								s += crBasis[a][m] * cy[k][iy][b] * cx[k][ix][c]
							}
							data[base+a*16+b*4+c] = s
						}
					}
				}
			}
		}
	}
	return &cubic.Tensor{
		NX: nx, NY: ny, NZ: nz,
		Ref0: ref0, Voxel: Voxel,
		Data: data,
	}
}

var (
	tensorOnce sync.Once
	tensor     *cubic.Tensor
)

// Tensor returns the full synthetic coefficient tensor. Lateral
// profiles are normalized at every z, so a wide ROI integrates to the
// photon count at any axial position. The tensor is built once and
// shared; callers must treat it as read-only.
func Tensor() *cubic.Tensor {
	tensorOnce.Do(func() { tensor = build(NX, NY, NZ, Ref0) })
	return tensor
}

// Small artifact dimensions for calibration-loader tests, where the
// full tensor would serialize to an unreasonably large document.
const (
	SmallNX, SmallNY, SmallNZ = 6, 6, 5
)

// SmallRef0 is the anchor of the small artifact.
var SmallRef0 = [3]float64{3, 3, 2.5}

// JSON serializes a small synthetic calibration in the artifact layout
// consumed by the calibration loader.
func JSON() []byte {
	t := build(SmallNX, SmallNY, SmallNZ, SmallRef0)
	doc := struct {
		Coeff struct {
			Shape []int     `json:"shape"`
			Data  []float64 `json:"data"`
		} `json:"coeff"`
		Ref0   []float64 `json:"ref0"`
		VxSize []float64 `json:"vx_size"`
	}{
		Ref0:   t.Ref0[:],
		VxSize: t.Voxel[:],
	}
	doc.Coeff.Shape = []int{t.NX, t.NY, t.NZ, cubic.NumTerms}
	doc.Coeff.Data = t.Data
	b, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return b
}
