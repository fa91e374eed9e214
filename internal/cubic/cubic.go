// Package cubic implements tricubic spline evaluation of a calibrated
// point-spread-function coefficient tensor, including the closed-form
// partial derivatives needed for Fisher-information analysis.
package cubic

import "math"

// NumTerms is the number of polynomial terms per spline cell: a cubic
// in each of three axes gives 4*4*4 monomials.
const NumTerms = 64

// NumParams is the size of the fit parameter vector: x, y, z, photons,
// background, in that order.
const NumParams = 5

// Parameter indices into derivative stacks and Fisher matrices.
const (
	ParamX = iota
	ParamY
	ParamZ
	ParamPhot
	ParamBg
)

// Tensor is an immutable tricubic coefficient tensor. Data is laid out
// as [NX][NY][NZ][NumTerms] flattened, with the term index (a*16+b*4+c)
// multiplying fz^a * fy^b * fx^c for in-cell fractions (fx, fy, fz).
type Tensor struct {
	NX, NY, NZ int
	Ref0       [3]float64 // spline-grid coordinate of the emitter anchor
	Voxel      [3]float64 // calibration voxel size per axis
	Data       []float64
}

// slice returns the 64-term coefficient slice for cell (ix, iy, iz),
// clamping each index into the tensor bounds. Clamping extends the
// boundary cell outward so near-edge ROIs evaluate without error.
func (t *Tensor) slice(ix, iy, iz int) []float64 {
	ix = clamp(ix, t.NX-1)
	iy = clamp(iy, t.NY-1)
	iz = clamp(iz, t.NZ-1)
	base := ((ix*t.NY+iy)*t.NZ + iz) * NumTerms
	return t.Data[base : base+NumTerms]
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}

// Delta holds the per-emitter monomial vectors. F is the value basis;
// DX, DY, DZ are its partial derivatives with respect to the in-cell
// fractions. Computed once per emitter and dotted against every pixel's
// coefficient slice.
type Delta struct {
	F, DX, DY, DZ [NumTerms]float64
}

// Compute fills the monomial vectors for in-cell fractions (fx, fy, fz),
// each expected in [0, 1).
func (d *Delta) Compute(fx, fy, fz float64) {
	var xp, yp, zp, dxp, dyp, dzp [4]float64
	xp[0], yp[0], zp[0] = 1, 1, 1
	for n := 1; n < 4; n++ {
		xp[n] = xp[n-1] * fx
		yp[n] = yp[n-1] * fy
		zp[n] = zp[n-1] * fz
		dxp[n] = float64(n) * xp[n-1]
		dyp[n] = float64(n) * yp[n-1]
		dzp[n] = float64(n) * zp[n-1]
	}
	i := 0
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			for c := 0; c < 4; c++ {
				d.F[i] = zp[a] * yp[b] * xp[c]
				d.DX[i] = zp[a] * yp[b] * dxp[c]
				d.DY[i] = zp[a] * dyp[b] * xp[c]
				d.DZ[i] = dzp[a] * yp[b] * xp[c]
				i++
			}
		}
	}
}

func dot(coeff []float64, v *[NumTerms]float64) float64 {
	s := 0.0
	for i := 0; i < NumTerms; i++ {
		s += coeff[i] * v[i]
	}
	return s
}

// cellOrigin converts the emitter's in-ROI offset (xc, yc, pixel units)
// and axial position z (calibration units) into the spline cell origin
// and in-cell fractions. The spline grid is tabulated around Ref0 and
// indexed opposite to the detector axes: moving the emitter right moves
// the sampled spline coordinate left.
func (t *Tensor) cellOrigin(xc, yc, z float64) (i0, j0, k0 int, fx, fy, fz float64) {
	gx := t.Ref0[0] - xc/t.Voxel[0]
	gy := t.Ref0[1] - yc/t.Voxel[1]
	gz := t.Ref0[2] + z/t.Voxel[2]
	xf := math.Floor(gx)
	yf := math.Floor(gy)
	zf := math.Floor(gz)
	return int(xf), int(yf), int(zf), gx - xf, gy - yf, gz - zf
}

// EvalROI renders one emitter into an h*w ROI. (xc, yc) is the emitter
// position relative to the ROI origin pixel centre, in pixels; z is the
// axial position in calibration units. out receives
// phot*unitIntensity + bg per pixel, row-major.
func EvalROI(t *Tensor, xc, yc, z, phot, bg float64, w, h int, out []float64) {
	var d Delta
	i0, j0, k0, fx, fy, fz := t.cellOrigin(xc, yc, z)
	d.Compute(fx, fy, fz)
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			c := t.slice(i0+px, j0+py, k0)
			out[py*w+px] = phot*dot(c, &d.F) + bg
		}
	}
}

// EvalROIDerivs renders one emitter into an h*w ROI and fills the
// 5-parameter analytic Jacobian. drv is laid out as five h*w planes in
// parameter order x, y, z, phot, bg. The x/y/z planes are derivatives
// of the total intensity (photon-scaled); the phot plane is the
// unit-photon intensity; the bg plane is identically 1 inside the ROI.
func EvalROIDerivs(t *Tensor, xc, yc, z, phot, bg float64, w, h int, out, drv []float64) {
	var d Delta
	i0, j0, k0, fx, fy, fz := t.cellOrigin(xc, yc, z)
	d.Compute(fx, fy, fz)
	plane := w * h
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			c := t.slice(i0+px, j0+py, k0)
			f := dot(c, &d.F)
			idx := py*w + px
			out[idx] = phot*f + bg
			drv[ParamX*plane+idx] = -phot * dot(c, &d.DX) / t.Voxel[0]
			drv[ParamY*plane+idx] = -phot * dot(c, &d.DY) / t.Voxel[1]
			drv[ParamZ*plane+idx] = phot * dot(c, &d.DZ) / t.Voxel[2]
			drv[ParamPhot*plane+idx] = f
			drv[ParamBg*plane+idx] = 1
		}
	}
}
