//go:build nogpu

package accel

import (
	"errors"

	"github.com/smlmkit/psf/internal/cubic"
)

// gpuPipeline stub for builds without GPU support. The backend always
// evaluates on the worker pool.
type gpuPipeline struct{}

func newGPUPipeline() (*gpuPipeline, error) {
	return nil, errors.New("built without GPU support")
}

func (g *gpuPipeline) upload(*cubic.Tensor) error { return nil }

func (g *gpuPipeline) destroy() {}
