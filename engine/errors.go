package engine

import (
	"errors"

	"github.com/pthm-cable/windfield/field"
)

var (
	// ErrResourceAllocation is returned when a buffer, texture or target cannot be
	// created. The operation that hit it leaves the previous resources in place.
	ErrResourceAllocation = errors.New("engine: resource allocation failed")

	// ErrInvalidField is returned by SetField for rasters that do not match their
	// declared shape. It is the same value as field.ErrInvalidField.
	ErrInvalidField = field.ErrInvalidField

	// ErrParameterOutOfRange is returned by mutators given values outside their domain.
	ErrParameterOutOfRange = errors.New("engine: parameter out of range")

	// ErrFrameSkipped is returned by Draw when the frame could not be drawn in full
	// and nothing was submitted.
	ErrFrameSkipped = errors.New("engine: frame skipped")
)
