package psf

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/smlmkit/psf/internal/cubic"
)

// Coefficients is a loaded tricubic spline calibration: the coefficient
// tensor of shape (nx, ny, nz, 64), the ref0 anchor giving the spline
// grid coordinate of an in-focus emitter, and the per-axis voxel size
// of the calibration grid.
type Coefficients struct {
	tensor cubic.Tensor
}

// Shape returns the spatial tensor dimensions (nx, ny, nz).
func (c *Coefficients) Shape() (nx, ny, nz int) {
	return c.tensor.NX, c.tensor.NY, c.tensor.NZ
}

// Ref0 returns the emitter anchor in spline grid coordinates.
func (c *Coefficients) Ref0() [3]float64 { return c.tensor.Ref0 }

// VoxelSize returns the calibration voxel size per axis.
func (c *Coefficients) VoxelSize() [3]float64 { return c.tensor.Voxel }

// Tensor exposes the underlying evaluation tensor to backend packages.
// Callers must treat it as read-only.
func (c *Coefficients) Tensor() *cubic.Tensor { return &c.tensor }

// NewCoefficients constructs a calibration from an in-memory tensor:
// flat data in (nx, ny, nz, 64) order, the ref0 anchor, and the
// per-axis voxel size. The data slice is taken over, not copied.
func NewCoefficients(nx, ny, nz int, ref0, vxSize [3]float64, data []float64) (*Coefficients, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, &CalibrationFormatError{Field: "coeff.shape", Reason: "non-positive dimension"}
	}
	if want := nx * ny * nz * cubic.NumTerms; len(data) != want {
		return nil, &ShapeMismatchError{What: "coefficient data", Want: want, Got: len(data)}
	}
	for i, v := range vxSize {
		if v <= 0 {
			return nil, &CalibrationFormatError{
				Field:  "vx_size",
				Reason: fmt.Sprintf("axis %d not positive", i),
			}
		}
	}
	return &Coefficients{tensor: cubic.Tensor{
		NX: nx, NY: ny, NZ: nz,
		Ref0: ref0, Voxel: vxSize,
		Data: data,
	}}, nil
}

// calibrationDoc is the JSON artifact layout. The coeff data is stored
// flat in (nx, ny, nz, 64) order.
type calibrationDoc struct {
	Coeff *struct {
		Shape []int     `json:"shape"`
		Data  []float64 `json:"data"`
	} `json:"coeff"`
	Ref0   []float64 `json:"ref0"`
	VxSize []float64 `json:"vx_size"`
}

// LoadCalibration reads a spline calibration artifact from a JSON file.
func LoadCalibration(path string) (*Coefficients, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("psf: load calibration: %w", err)
	}
	defer f.Close()
	c, err := LoadCalibrationFrom(f)
	if err != nil {
		return nil, fmt.Errorf("psf: load calibration %s: %w", path, err)
	}
	return c, nil
}

// LoadCalibrationFrom reads a spline calibration artifact from r.
// Loading is idempotent: the same artifact always yields an equal
// tensor. Missing or malformed fields produce a
// *CalibrationFormatError naming the field.
func LoadCalibrationFrom(r io.Reader) (*Coefficients, error) {
	var doc calibrationDoc
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &CalibrationFormatError{Field: "document", Reason: err.Error()}
	}
	if doc.Coeff == nil {
		return nil, &CalibrationFormatError{Field: "coeff"}
	}
	if len(doc.Coeff.Shape) != 4 {
		return nil, &CalibrationFormatError{
			Field:  "coeff.shape",
			Reason: fmt.Sprintf("rank %d, want 4", len(doc.Coeff.Shape)),
		}
	}
	nx, ny, nz, nt := doc.Coeff.Shape[0], doc.Coeff.Shape[1], doc.Coeff.Shape[2], doc.Coeff.Shape[3]
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, &CalibrationFormatError{Field: "coeff.shape", Reason: "non-positive dimension"}
	}
	if nt != cubic.NumTerms {
		return nil, &CalibrationFormatError{
			Field:  "coeff.shape",
			Reason: fmt.Sprintf("%d terms per cell, want %d", nt, cubic.NumTerms),
		}
	}
	if want := nx * ny * nz * nt; len(doc.Coeff.Data) != want {
		return nil, &CalibrationFormatError{
			Field:  "coeff.data",
			Reason: fmt.Sprintf("length %d, want %d", len(doc.Coeff.Data), want),
		}
	}
	if len(doc.Ref0) != 3 {
		return nil, &CalibrationFormatError{Field: "ref0"}
	}
	voxel := [3]float64{1, 1, 1}
	if doc.VxSize != nil {
		if len(doc.VxSize) != 3 {
			return nil, &CalibrationFormatError{Field: "vx_size"}
		}
		copy(voxel[:], doc.VxSize)
		for i, v := range voxel {
			if v <= 0 {
				return nil, &CalibrationFormatError{
					Field:  "vx_size",
					Reason: fmt.Sprintf("axis %d not positive", i),
				}
			}
		}
	}

	data := make([]float64, len(doc.Coeff.Data))
	copy(data, doc.Coeff.Data)
	c := &Coefficients{tensor: cubic.Tensor{
		NX: nx, NY: ny, NZ: nz,
		Ref0:  [3]float64{doc.Ref0[0], doc.Ref0[1], doc.Ref0[2]},
		Voxel: voxel,
		Data:  data,
	}}
	Logger().Debug("calibration loaded",
		"nx", nx, "ny", ny, "nz", nz,
		"ref0", c.tensor.Ref0, "vx_size", c.tensor.Voxel)
	return c, nil
}
