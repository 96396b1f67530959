// Package camera moves camera rigs. A controller keeps an orbit around a target point and writes
// the resulting position and orientation into a node, between frames, so the next draw picks
// the change up through the node's dirty tracking.
package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/engine/gltf"
	"github.com/go-gl/mathgl/mgl32"
)

// Controller defines the union of orbit and planar controls.
// The controller owns positional state (position, target). Apply writes it into a node.
type Controller interface {
	orbitController
	planarController

	// Position returns the rig's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space position
	Position() (x, y, z float32)

	// Target returns the look-at point.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// Zoom adjusts the distance to the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Drag orbits by a pointer movement in pixels, scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal movement, positive orbits right
	//   - dy: vertical movement, positive tilts up
	Drag(dx, dy float32)

	// Apply writes the position into n's translation and a rotation looking at the target into
	// n's rotation. n is usually the parent of a camera's correction node. A node with an
	// authored matrix switches to TRS on the next Local call.
	//
	// Parameters:
	//   - n: the rig node, treated as a root
	Apply(n *gltf.Node)
}

// orbitController defines orbit controls over spherical coordinates (radius, azimuth,
// elevation) relative to the target.
type orbitController interface {
	// OrbitLeft rotates left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts upward by one orbit speed step, clamped to the max elevation.
	OrbitUp()

	// OrbitDown tilts downward by one orbit speed step, clamped to the min elevation.
	OrbitDown()

	// Radius returns the distance from the target.
	Radius() float32

	// SetRadius sets the orbit radius, clamped to the radius bounds.
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// SetAzimuth sets the horizontal angle in radians.
	SetAzimuth(azimuth float32)

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float32

	// SetElevation sets the vertical angle in radians, clamped to the elevation bounds.
	SetElevation(elevation float32)
}

// planarController translates position and target together along the rig's local axes,
// keeping the orbit angles.
type planarController interface {
	// PanRight translates along the local right axis. Negative delta moves left.
	PanRight(delta float32)

	// PanUp translates along the local up axis. Negative delta moves down.
	PanUp(delta float32)

	// PanForward translates toward the target. Negative delta moves away.
	PanForward(delta float32)
}

// controller is the single implementation of Controller.
type controller struct {
	mu sync.Mutex

	// position is computed from target and the spherical coordinates
	position mgl32.Vec3
	target   mgl32.Vec3

	radius    float32
	azimuth   float32 // around Y, 0 looks down -Z from +Z
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

var _ Controller = &controller{}

// NewController creates an orbit controller 10 units from the origin, 30 degrees above the horizon.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controller{
		radius:    10,
		elevation: float32(math.Pi / 6),

		minRadius:    0.1,
		maxRadius:    1000,
		minElevation: -float32(math.Pi/2 - 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        1,
		panSpeed:         1,
	}

	for _, option := range options {
		option(c)
	}

	c.radius = clamp(c.radius, c.minRadius, c.maxRadius)
	c.elevation = clamp(c.elevation, c.minElevation, c.maxElevation)
	c.updatePosition()
	return c
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

// updatePosition recomputes the position from the spherical coordinates. Caller holds mu.
func (c *controller) updatePosition() {
	cosElev := float32(math.Cos(float64(c.elevation)))
	sinElev := float32(math.Sin(float64(c.elevation)))
	cosAzim := float32(math.Cos(float64(c.azimuth)))
	sinAzim := float32(math.Sin(float64(c.azimuth)))

	c.position = c.target.Add(mgl32.Vec3{
		c.radius * cosElev * sinAzim,
		c.radius * sinElev,
		c.radius * cosElev * cosAzim,
	})
}

// axes returns the right, up and forward axes matching a look-at from position to target.
// All are zero when position and target coincide. Caller holds mu.
func (c *controller) axes() (right, up, forward mgl32.Vec3) {
	back := c.position.Sub(c.target)
	if back.Len() < 1e-8 {
		return
	}
	back = back.Normalize()
	right = mgl32.Vec3{0, 1, 0}.Cross(back)
	if right.Len() < 1e-8 {
		return mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{}
	}
	right = right.Normalize()
	return right, back.Cross(right), back.Mul(-1)
}

func (c *controller) pan(axis mgl32.Vec3, delta float32) {
	offset := axis.Mul(delta * c.panSpeed)
	c.target = c.target.Add(offset)
	c.position = c.position.Add(offset)
}

func (c *controller) Position() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position[0], c.position[1], c.position[2]
}

func (c *controller) Target() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target[0], c.target[1], c.target[2]
}

func (c *controller) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = mgl32.Vec3{x, y, z}
	c.updatePosition()
}

func (c *controller) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = clamp(c.radius-delta*c.zoomSpeed, c.minRadius, c.maxRadius)
	c.updatePosition()
}

func (c *controller) Drag(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += dx * c.mouseSensitivity
	c.elevation = clamp(c.elevation+dy*c.mouseSensitivity, c.minElevation, c.maxElevation)
	c.updatePosition()
}

func (c *controller) Apply(n *gltf.Node) {
	c.mu.Lock()
	eye, center := c.position, c.target
	c.mu.Unlock()

	n.Translation().SetVec3(eye)
	if eye.Sub(center).Len() < 1e-8 {
		return
	}
	view := mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
	n.Rotation().SetQuat(mgl32.Mat4ToQuat(view.Inv()).Normalize())
}

func (c *controller) OrbitLeft() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth -= c.orbitSpeed
	c.updatePosition()
}

func (c *controller) OrbitRight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += c.orbitSpeed
	c.updatePosition()
}

func (c *controller) OrbitUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elevation = clamp(c.elevation+c.orbitSpeed, c.minElevation, c.maxElevation)
	c.updatePosition()
}

func (c *controller) OrbitDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elevation = clamp(c.elevation-c.orbitSpeed, c.minElevation, c.maxElevation)
	c.updatePosition()
}

func (c *controller) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *controller) SetRadius(radius float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = clamp(radius, c.minRadius, c.maxRadius)
	c.updatePosition()
}

func (c *controller) Azimuth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.azimuth
}

func (c *controller) SetAzimuth(azimuth float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth = azimuth
	c.updatePosition()
}

func (c *controller) Elevation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elevation
}

func (c *controller) SetElevation(elevation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elevation = clamp(elevation, c.minElevation, c.maxElevation)
	c.updatePosition()
}

func (c *controller) PanRight(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	right, _, _ := c.axes()
	c.pan(right, delta)
}

func (c *controller) PanUp(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, up, _ := c.axes()
	c.pan(up, delta)
}

func (c *controller) PanForward(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _, forward := c.axes()
	c.pan(forward, delta)
}
