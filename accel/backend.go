package accel

import (
	"errors"

	"github.com/smlmkit/psf"
	"github.com/smlmkit/psf/internal/cubic"
)

// factory builds backend instances for the registry.
type factory struct{}

func (factory) New() psf.Backend { return &backend{} }

func init() {
	if err := psf.RegisterAccelerated(factory{}); err != nil {
		psf.Logger().Warn("accelerated backend registration failed", "err", err)
	}
}

// backend evaluates spline batches in parallel. Emitter index ranges
// are spread across a work-stealing pool; each span runs the same
// float64 kernel as the scalar backend, so the numeric contract holds
// exactly. A GPU compute pipeline is built when a device is available
// and holds the coefficient tensor resident.
type backend struct {
	workers int
	pool    *evalPool
	gpu     *gpuPipeline
	tensor  *cubic.Tensor
}

func (b *backend) Name() string { return "accel" }

// SetWorkers fixes the pool size. Zero keeps the GOMAXPROCS default.
// Must be called before Init.
func (b *backend) SetWorkers(n int) { b.workers = n }

func (b *backend) Init() error {
	b.pool = newEvalPool(b.workers)
	gpu, err := newGPUPipeline()
	if err != nil {
		psf.Logger().Warn("GPU unavailable, evaluating on worker pool", "err", err)
	} else {
		b.gpu = gpu
	}
	psf.Logger().Info("accelerated backend initialized",
		"workers", b.pool.size(), "gpu", b.gpu != nil)
	return nil
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.close()
		b.pool = nil
	}
	if b.gpu != nil {
		b.gpu.destroy()
		b.gpu = nil
	}
}

func (b *backend) Upload(c *psf.Coefficients) error {
	b.tensor = c.Tensor()
	if b.gpu != nil {
		if err := b.gpu.upload(b.tensor); err != nil {
			psf.Logger().Warn("device upload failed, evaluating on worker pool", "err", err)
			b.gpu.destroy()
			b.gpu = nil
		}
	}
	return nil
}

func (b *backend) EvaluateROIs(req *psf.EvalRequest) error {
	return b.run(req, false)
}

func (b *backend) EvaluateDerivatives(req *psf.EvalRequest) error {
	return b.run(req, true)
}

func (b *backend) run(req *psf.EvalRequest, derivs bool) error {
	if b.tensor == nil {
		return errors.New("accel: no coefficients uploaded")
	}
	if b.pool == nil {
		return errors.New("accel: backend closed")
	}
	plane := req.ROIW * req.ROIH
	dplane := cubic.NumParams * plane

	b.pool.run(req.N, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if derivs {
				cubic.EvalROIDerivs(b.tensor,
					req.XC[i], req.YC[i], req.Z[i], req.Phot[i], req.Bg[i],
					req.ROIW, req.ROIH,
					req.ROIs[i*plane:(i+1)*plane],
					req.Derivs[i*dplane:(i+1)*dplane])
			} else {
				cubic.EvalROI(b.tensor,
					req.XC[i], req.YC[i], req.Z[i], req.Phot[i], req.Bg[i],
					req.ROIW, req.ROIH,
					req.ROIs[i*plane:(i+1)*plane])
			}
		}
	})
	return nil
}
