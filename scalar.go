package psf

import (
	"errors"

	"github.com/smlmkit/psf/internal/cubic"
)

// scalarBackend is the sequential reference evaluator. It processes
// one emitter at a time and defines the numeric contract all other
// backends must match.
type scalarBackend struct {
	tensor *cubic.Tensor
}

func newScalarBackend() Backend { return &scalarBackend{} }

func (b *scalarBackend) Name() string { return "scalar" }

func (b *scalarBackend) Init() error { return nil }

func (b *scalarBackend) Close() {}

func (b *scalarBackend) Upload(c *Coefficients) error {
	b.tensor = c.Tensor()
	return nil
}

func (b *scalarBackend) EvaluateROIs(req *EvalRequest) error {
	if b.tensor == nil {
		return errors.New("psf: scalar backend: no coefficients uploaded")
	}
	plane := req.ROIW * req.ROIH
	for i := 0; i < req.N; i++ {
		cubic.EvalROI(b.tensor,
			req.XC[i], req.YC[i], req.Z[i], req.Phot[i], req.Bg[i],
			req.ROIW, req.ROIH,
			req.ROIs[i*plane:(i+1)*plane])
	}
	return nil
}

func (b *scalarBackend) EvaluateDerivatives(req *EvalRequest) error {
	if b.tensor == nil {
		return errors.New("psf: scalar backend: no coefficients uploaded")
	}
	plane := req.ROIW * req.ROIH
	dplane := cubic.NumParams * plane
	for i := 0; i < req.N; i++ {
		cubic.EvalROIDerivs(b.tensor,
			req.XC[i], req.YC[i], req.Z[i], req.Phot[i], req.Bg[i],
			req.ROIW, req.ROIH,
			req.ROIs[i*plane:(i+1)*plane],
			req.Derivs[i*dplane:(i+1)*dplane])
	}
	return nil
}
