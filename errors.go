package psf

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable indicates that no accelerated backend is
// registered. Enable one via blank import:
//
//	import _ "github.com/smlmkit/psf/accel"
var ErrBackendUnavailable = errors.New("psf: accelerated backend not available")

// CalibrationFormatError reports a missing or invalid field in a spline
// calibration artifact.
type CalibrationFormatError struct {
	Field  string
	Reason string
}

func (e *CalibrationFormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("psf: calibration field %q missing or invalid", e.Field)
	}
	return fmt.Sprintf("psf: calibration field %q: %s", e.Field, e.Reason)
}

// ShapeMismatchError reports inconsistent lengths between parallel
// emitter attribute slices or between a tensor and its declared shape.
type ShapeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("psf: %s: length %d, want %d", e.What, e.Got, e.Want)
}
