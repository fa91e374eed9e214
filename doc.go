// Package psf renders point emitters through calibrated point-spread
// functions for single-molecule localization microscopy.
//
// # Overview
//
// The central model is CubicSplinePSF: a tricubic spline interpolant of
// an experimentally calibrated PSF, evaluated per pixel to produce
// expected photon counts. Alongside forward rendering it provides the
// analytic 5-parameter Jacobian (x, y, z, photons, background), the
// Poisson Fisher information matrix, and Cramer-Rao lower bounds per
// emitter.
//
// # Quick Start
//
//	coeff, err := psf.LoadCalibration("spline_calibration.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	grid := psf.PixelGrid{
//	    XExtent: [2]float64{-0.5, 63.5},
//	    YExtent: [2]float64{-0.5, 63.5},
//	    Width:   64, Height: 64,
//	}
//	model, err := psf.NewCubicSplinePSF(coeff, grid, psf.WithROISize(32, 32))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	frames, err := model.Forward(emitters, 0, 9)
//	crlb, _, err := model.CRLB(emitters)
//
// # PSF family
//
// DeltaPSF places each emitter's photon count on its nearest pixel and
// GaussianExpect renders an astigmatic Gaussian expectation; both share
// the Forward contract. Derivatives, Fisher matrices, and CRLBs are
// spline-only.
//
// # Backends
//
// The spline evaluator runs on a sequential scalar backend by default.
// A data-parallel backend with GPU compute-pipeline support is enabled
// by blank import:
//
//	import _ "github.com/smlmkit/psf/accel"
//
// Both backends satisfy the same numeric contract; switching between
// them via Accelerated/Scalar transfers data only.
//
// # Coordinate System
//
// Emitter positions are continuous coordinates in the units of the
// frame extents. A pixel grid maps extents to integer pixels; pixel i
// spans [i, i+1) in continuous pixel units with its centre at i+0.5.
// The z coordinate is in the calibration's axial units.
package psf

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
