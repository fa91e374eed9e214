// Package accel provides the data-parallel spline evaluation backend.
//
// Importing the package registers the backend with psf:
//
//	import _ "github.com/smlmkit/psf/accel"
//
// Batches are partitioned across a work-stealing worker pool. When a
// Vulkan-capable GPU is present the backend additionally builds a
// wgpu/hal compute pipeline from the embedded WGSL tricubic kernel and
// keeps the coefficient tensor resident on the device; GPU init
// failure is non-fatal and falls back to pool evaluation.
//
// The backend is numerically interchangeable with the scalar reference
// backend: both run the same float64 kernel, so results agree
// elementwise well inside the 1e-7 contract.
package accel
