package camera

// ControllerBuilderOption is a functional option for configuring a Controller.
type ControllerBuilderOption func(*controller)

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - ControllerBuilderOption: functional option to set the radius
func WithRadius(radius float32) ControllerBuilderOption {
	return func(c *controller) {
		c.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - ControllerBuilderOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) ControllerBuilderOption {
	return func(c *controller) {
		c.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle from the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - ControllerBuilderOption: functional option to set the elevation
func WithElevation(elevation float32) ControllerBuilderOption {
	return func(c *controller) {
		c.elevation = elevation
	}
}

// WithTarget sets the look-at/pivot point.
//
// Returns:
//   - ControllerBuilderOption: functional option to set the target position
func WithTarget(x, y, z float32) ControllerBuilderOption {
	return func(c *controller) {
		c.target = [3]float32{x, y, z}
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
func WithRadiusBounds(lo, hi float32) ControllerBuilderOption {
	return func(c *controller) {
		c.minRadius, c.maxRadius = lo, hi
	}
}

// WithElevationBounds sets the minimum and maximum elevation angles in radians.
func WithElevationBounds(lo, hi float32) ControllerBuilderOption {
	return func(c *controller) {
		c.minElevation, c.maxElevation = lo, hi
	}
}

// WithSpeeds sets the orbit step in radians, the drag sensitivity in radians per pixel, and
// the zoom and pan multipliers.
//
// Returns:
//   - ControllerBuilderOption: functional option to set the speeds
func WithSpeeds(orbit, mouse, zoom, pan float32) ControllerBuilderOption {
	return func(c *controller) {
		c.orbitSpeed = orbit
		c.mouseSensitivity = mouse
		c.zoomSpeed = zoom
		c.panSpeed = pan
	}
}
