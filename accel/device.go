//go:build !nogpu

package accel

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/smlmkit/psf"
	"github.com/smlmkit/psf/internal/cubic"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// gpuPipeline holds the compute pipeline for on-device spline
// evaluation: device and queue, the compiled tricubic shader, and the
// resident coefficient buffer.
//
// Dispatching full batches through the pipeline needs HAL buffer
// mapping for the float64 readback path; until that lands, batches run
// on the worker pool and the pipeline carries the uploaded tensor.
type gpuPipeline struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	coeffBuf  hal.Buffer
	coeffSize uint64
}

// newGPUPipeline acquires a GPU device and builds the spline compute
// pipeline. Any failure is reported to the caller, which falls back to
// pool evaluation.
func newGPUPipeline() (*gpuPipeline, error) {
	// Validate the shader before touching the device: naga reports
	// WGSL errors with positions, the driver does not.
	if _, err := naga.Compile(splineShaderSource); err != nil {
		return nil, fmt.Errorf("compile spline shader: %w", err)
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	g := &gpuPipeline{instance: instance}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		g.destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		g.destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	g.device = openDev.Device
	g.queue = openDev.Queue

	if err := g.createPipeline(); err != nil {
		g.destroy()
		return nil, err
	}
	psf.Logger().Info("spline GPU pipeline ready", "adapter", selected.Info.Name)
	return g, nil
}

func (g *gpuPipeline) createPipeline() error {
	shader, err := g.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "spline_eval",
		Source: hal.ShaderSource{WGSL: splineShaderSource},
	})
	if err != nil {
		return fmt.Errorf("create spline shader module: %w", err)
	}
	g.shader = shader

	bindLayout, err := g.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "spline_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create spline bind group layout: %w", err)
	}
	g.bindLayout = bindLayout

	pipeLayout, err := g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "spline_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{g.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create spline pipeline layout: %w", err)
	}
	g.pipeLayout = pipeLayout

	pipeline, err := g.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "spline_pipeline", Layout: g.pipeLayout,
		Compute: hal.ComputeState{Module: g.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create spline compute pipeline: %w", err)
	}
	g.pipeline = pipeline
	return nil
}

// upload transfers the coefficient tensor to the device as f32, the
// storage format WebGPU compute requires.
func (g *gpuPipeline) upload(t *cubic.Tensor) error {
	data := make([]byte, len(t.Data)*4)
	for i, v := range t.Data {
		bits := math.Float32bits(float32(v))
		data[i*4+0] = byte(bits)
		data[i*4+1] = byte(bits >> 8)
		data[i*4+2] = byte(bits >> 16)
		data[i*4+3] = byte(bits >> 24)
	}

	if g.coeffBuf != nil {
		g.device.DestroyBuffer(g.coeffBuf)
		g.coeffBuf = nil
	}
	buf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "spline_coeff", Size: uint64(len(data)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create coefficient buffer: %w", err)
	}
	g.coeffBuf = buf
	g.coeffSize = uint64(len(data))
	g.queue.WriteBuffer(buf, 0, data)
	psf.Logger().Debug("coefficients resident on device", "bytes", len(data))
	return nil
}

func (g *gpuPipeline) destroy() {
	if g.device != nil {
		if g.coeffBuf != nil {
			g.device.DestroyBuffer(g.coeffBuf)
			g.coeffBuf = nil
		}
		if g.pipeline != nil {
			g.device.DestroyComputePipeline(g.pipeline)
			g.pipeline = nil
		}
		if g.pipeLayout != nil {
			g.device.DestroyPipelineLayout(g.pipeLayout)
			g.pipeLayout = nil
		}
		if g.bindLayout != nil {
			g.device.DestroyBindGroupLayout(g.bindLayout)
			g.bindLayout = nil
		}
		if g.shader != nil {
			g.device.DestroyShaderModule(g.shader)
			g.shader = nil
		}
		g.device.Destroy()
		g.device = nil
	}
	if g.instance != nil {
		g.instance.Destroy()
		g.instance = nil
	}
	g.queue = nil
}
