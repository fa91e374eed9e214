package psf

// ROIStack holds N rendered regions of interest of H*W pixels each.
type ROIStack struct {
	N, H, W int
	data    []float64
}

// At returns the value of ROI i at row y, column x.
func (s *ROIStack) At(i, y, x int) float64 {
	return s.data[(i*s.H+y)*s.W+x]
}

// ROI returns ROI i as a row-major slice backed by the stack.
func (s *ROIStack) ROI(i int) []float64 {
	return s.data[i*s.H*s.W : (i+1)*s.H*s.W]
}

// Data returns the full backing slice.
func (s *ROIStack) Data() []float64 { return s.data }

// DerivativeStack holds N per-ROI Jacobians: five H*W planes per
// emitter in parameter order x, y, z, phot, bg.
type DerivativeStack struct {
	N, P, H, W int
	data       []float64
}

// At returns the derivative of ROI i's pixel (y, x) with respect to
// parameter p.
func (s *DerivativeStack) At(i, p, y, x int) float64 {
	return s.data[((i*s.P+p)*s.H+y)*s.W+x]
}

// Plane returns the H*W derivative plane of ROI i, parameter p.
func (s *DerivativeStack) Plane(i, p int) []float64 {
	base := (i*s.P + p) * s.H * s.W
	return s.data[base : base+s.H*s.W]
}

// Emitter returns the full 5*H*W Jacobian of ROI i.
func (s *DerivativeStack) Emitter(i int) []float64 {
	return s.data[i*s.P*s.H*s.W : (i+1)*s.P*s.H*s.W]
}

// Data returns the full backing slice.
func (s *DerivativeStack) Data() []float64 { return s.data }

// FisherStack holds N symmetric 5*5 Fisher information matrices.
type FisherStack struct {
	N    int
	data []float64
}

// NewFisherStack creates a zeroed Fisher stack.
func NewFisherStack(n int) *FisherStack {
	return &FisherStack{N: n, data: make([]float64, n*NumParams*NumParams)}
}

// At returns element (p, q) of emitter i's Fisher matrix.
func (s *FisherStack) At(i, p, q int) float64 {
	return s.data[(i*NumParams+p)*NumParams+q]
}

// Matrix returns emitter i's 5*5 matrix as a row-major slice.
func (s *FisherStack) Matrix(i int) []float64 {
	return s.data[i*NumParams*NumParams : (i+1)*NumParams*NumParams]
}

// CRLBStack holds N 5-vector Cramer-Rao lower bounds (variances, in
// squared parameter units).
type CRLBStack struct {
	N    int
	data []float64
}

// NewCRLBStack creates a zeroed CRLB stack.
func NewCRLBStack(n int) *CRLBStack {
	return &CRLBStack{N: n, data: make([]float64, n*NumParams)}
}

// At returns the bound for parameter p of emitter i.
func (s *CRLBStack) At(i, p int) float64 {
	return s.data[i*NumParams+p]
}

// Vector returns emitter i's 5-vector of bounds.
func (s *CRLBStack) Vector(i int) []float64 {
	return s.data[i*NumParams : (i+1)*NumParams]
}
