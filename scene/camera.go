package scene

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// framing constants: the camera sits along a fixed diagonal above the
// scene, far enough back that the largest dimension fits comfortably.
const (
	frameMinDistance = 2.5
	frameDistanceK   = 1.5
	frameAzimuth     = math.Pi / 4
	frameElevation   = 0.62

	minOrbitRadius = 0.5
	maxPitch       = math.Pi/2 - 0.01

	cameraFPS = 60
)

// CameraRig drives the viewer camera in one of two mutually exclusive
// navigation modes. Orbit moves target-relative with spring damping;
// first-person moves and looks freely. Input calls for the inactive mode
// are ignored outright, so a mode switch fully disables the other
// controller.
type CameraRig struct {
	Mode CameraMode

	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	target Vec3

	// orbit state, spherical around target
	azimuth, azimuthVel     float64
	elevation, elevationVel float64
	radius, radiusVel       float64
	azimuthGoal             float64
	elevationGoal           float64
	radiusGoal              float64
	spring                  harmonica.Spring

	// first-person state
	fpPosition  Vec3
	fpYaw       float64
	fpPitch     float64
	moveForward float64
	moveRight   float64
	moveUp      float64
}

// NewCameraRig creates an orbit-mode rig with a neutral pose.
func NewCameraRig() *CameraRig {
	return &CameraRig{
		Mode:          CameraOrbit,
		FOV:           math.Pi / 3,
		Aspect:        16.0 / 9.0,
		Near:          0.1,
		Far:           1000,
		azimuth:       frameAzimuth,
		elevation:     frameElevation,
		radius:        10,
		azimuthGoal:   frameAzimuth,
		elevationGoal: frameElevation,
		radiusGoal:    10,
		// Critically damped: smooth stop, no overshoot.
		spring: harmonica.NewSpring(harmonica.FPS(cameraFPS), 5.0, 1.0),
	}
}

// Position returns the camera position in render coordinates.
func (c *CameraRig) Position() Vec3 {
	if c.Mode == CameraFirstPerson {
		return c.fpPosition
	}
	return c.target.Add(sphericalDir(c.azimuth, c.elevation).Scale(c.radius))
}

// Target returns the orbit target.
func (c *CameraRig) Target() Vec3 {
	return c.target
}

// Forward returns the unit view direction.
func (c *CameraRig) Forward() Vec3 {
	if c.Mode == CameraFirstPerson {
		return Vec3{
			X: math.Cos(c.fpPitch) * math.Sin(c.fpYaw),
			Y: math.Sin(c.fpPitch),
			Z: math.Cos(c.fpPitch) * math.Cos(c.fpYaw),
		}
	}
	return c.target.Sub(c.Position()).Normalize()
}

func sphericalDir(azimuth, elevation float64) Vec3 {
	return Vec3{
		X: math.Cos(elevation) * math.Sin(azimuth),
		Y: math.Sin(elevation),
		Z: math.Cos(elevation) * math.Cos(azimuth),
	}
}

// SetMode switches the navigation controller, carrying the current pose
// over so the view does not jump. Velocities reset so no residual input
// from the previous mode keeps acting.
func (c *CameraRig) SetMode(mode CameraMode) {
	if mode == c.Mode || (mode != CameraOrbit && mode != CameraFirstPerson) {
		return
	}
	switch mode {
	case CameraFirstPerson:
		pos := c.Position()
		fwd := c.target.Sub(pos).Normalize()
		c.fpPosition = pos
		c.fpPitch = math.Asin(clamp(fwd.Y, -1, 1))
		c.fpYaw = math.Atan2(fwd.X, fwd.Z)
	case CameraOrbit:
		// Re-enter orbit around the last target at the current distance.
		offset := c.fpPosition.Sub(c.target)
		r := offset.Len()
		if r < minOrbitRadius {
			r = minOrbitRadius
		}
		c.radius, c.radiusGoal = r, r
		c.elevation = math.Asin(clamp(offset.Y/r, -1, 1))
		c.elevationGoal = c.elevation
		c.azimuth = math.Atan2(offset.X, offset.Z)
		c.azimuthGoal = c.azimuth
	}
	c.azimuthVel, c.elevationVel, c.radiusVel = 0, 0, 0
	c.moveForward, c.moveRight, c.moveUp = 0, 0, 0
	c.Mode = mode
}

// OrbitBy rotates the orbit goal. Ignored in first-person mode.
func (c *CameraRig) OrbitBy(dAzimuth, dElevation float64) {
	if c.Mode != CameraOrbit {
		return
	}
	c.azimuthGoal += dAzimuth
	c.elevationGoal = clamp(c.elevationGoal+dElevation, -maxPitch, maxPitch)
}

// Zoom scales the orbit distance goal. Ignored in first-person mode.
func (c *CameraRig) Zoom(factor float64) {
	if c.Mode != CameraOrbit || factor <= 0 {
		return
	}
	c.radiusGoal = math.Max(minOrbitRadius, c.radiusGoal*factor)
}

// Pan shifts the orbit target in the view plane. Ignored in first-person mode.
func (c *CameraRig) Pan(dx, dy float64) {
	if c.Mode != CameraOrbit {
		return
	}
	fwd := c.Forward()
	right := fwd.Cross(Vec3{Y: 1}).Normalize()
	up := right.Cross(fwd)
	c.target = c.target.Add(right.Scale(dx)).Add(up.Scale(dy))
}

// Look turns the first-person view. Ignored in orbit mode.
func (c *CameraRig) Look(dYaw, dPitch float64) {
	if c.Mode != CameraFirstPerson {
		return
	}
	c.fpYaw += dYaw
	c.fpPitch = clamp(c.fpPitch+dPitch, -maxPitch, maxPitch)
}

// Move sets the first-person movement input for the next ticks. Ignored in
// orbit mode.
func (c *CameraRig) Move(forward, right, up float64) {
	if c.Mode != CameraFirstPerson {
		return
	}
	c.moveForward, c.moveRight, c.moveUp = forward, right, up
}

// Tick advances the active controller by one frame.
func (c *CameraRig) Tick(dt float64) {
	switch c.Mode {
	case CameraOrbit:
		c.azimuth, c.azimuthVel = c.spring.Update(c.azimuth, c.azimuthVel, c.azimuthGoal)
		c.elevation, c.elevationVel = c.spring.Update(c.elevation, c.elevationVel, c.elevationGoal)
		c.radius, c.radiusVel = c.spring.Update(c.radius, c.radiusVel, c.radiusGoal)
	case CameraFirstPerson:
		fwd := c.Forward()
		right := fwd.Cross(Vec3{Y: 1}).Normalize()
		c.fpPosition = c.fpPosition.
			Add(fwd.Scale(c.moveForward * dt)).
			Add(right.Scale(c.moveRight * dt)).
			Add(Vec3{Y: c.moveUp * dt})
	}
}

// FitToBounds frames the camera on a bounding box: target at the center,
// camera along the fixed diagonal at a distance scaled to the largest
// dimension, clip planes proportional to that distance. Non-finite or
// empty bounds leave the camera untouched.
func (c *CameraRig) FitToBounds(b Bounds) {
	if !b.IsFinite() {
		return
	}
	dist := math.Max(frameMinDistance, b.MaxDimension()*frameDistanceK)

	c.target = b.Center()
	c.azimuth, c.azimuthGoal = frameAzimuth, frameAzimuth
	c.elevation, c.elevationGoal = frameElevation, frameElevation
	c.radius, c.radiusGoal = dist, dist
	c.azimuthVel, c.elevationVel, c.radiusVel = 0, 0, 0

	c.Near = math.Max(0.01, dist/100)
	c.Far = dist * 20

	if c.Mode == CameraFirstPerson {
		c.fpPosition = c.target.Add(sphericalDir(frameAzimuth, frameElevation).Scale(dist))
		fwd := c.target.Sub(c.fpPosition).Normalize()
		c.fpPitch = math.Asin(clamp(fwd.Y, -1, 1))
		c.fpYaw = math.Atan2(fwd.X, fwd.Z)
	}
}

// Ray returns the world-space ray through a normalized device coordinate,
// with x and y in [-1, 1] and y up.
func (c *CameraRig) Ray(ndcX, ndcY float64) (origin, dir Vec3) {
	origin = c.Position()
	fwd := c.Forward()
	right := fwd.Cross(Vec3{Y: 1}).Normalize()
	up := right.Cross(fwd)

	halfH := math.Tan(c.FOV / 2)
	halfW := halfH * c.Aspect

	dir = fwd.
		Add(right.Scale(ndcX * halfW)).
		Add(up.Scale(ndcY * halfH)).
		Normalize()
	return origin, dir
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
