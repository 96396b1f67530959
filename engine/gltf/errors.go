package gltf

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
)

var (
	// ErrMalformed wraps every structural problem in a description. It is the loader's sentinel.
	ErrMalformed = loader.ErrMalformed
	// ErrNotLoaded is returned when data is read, or device setup is attempted, before Load completed.
	ErrNotLoaded = errors.New("resource not loaded")
	// ErrNotBound is returned when a device handle is requested before SetupGL.
	ErrNotBound = errors.New("resource not bound to a device")
	// ErrDevice wraps failures reported by the graphics device.
	ErrDevice = errors.New("device failure")
	// ErrMissingPosition is returned when a program has no slot for a primitive's POSITION attribute.
	ErrMissingPosition = errors.New("program has no position attribute")
	// ErrDeviceMismatch is returned when a resource bound to one device is set up on another.
	ErrDeviceMismatch = errors.New("resource is bound to a different device")
	// ErrUnsupportedInput is returned by Parse for an input of an unknown type.
	ErrUnsupportedInput = errors.New("unsupported description input")
)
