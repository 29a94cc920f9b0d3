package scene

import (
	"fmt"
	"math"

	"github.com/taigrr/whitted/pkg/math3d"
)

// Camera generates one primary ray per pixel. The near-plane window
// (Left, Right, Bottom, Top) defines an off-center perspective frustum;
// when the window is unset it is derived from FOV and the aspect ratio.
type Camera struct {
	From math3d.Vec3
	To   math3d.Vec3
	Up   math3d.Vec3

	Near, Far                float64
	Left, Right, Top, Bottom float64
	FOV                      float64 // vertical, degrees

	XRes, YRes int

	// Derived by Update.
	ViewDirection math3d.Vec3
	View          math3d.Mat4 // world to camera
	Projection    math3d.Mat4 // camera to clip
	invViewProj   math3d.Mat4
}

// DefaultCamera looks from +Z at the origin with a 60 degree field of view.
func DefaultCamera() Camera {
	return Camera{
		From: math3d.V3(0, 0, 5),
		To:   math3d.Zero3(),
		Up:   math3d.V3(0, 1, 0),
		Near: 1,
		Far:  1000,
		FOV:  60,
		XRes: 256,
		YRes: 256,
	}
}

// Aspect returns XRes / YRes.
func (c *Camera) Aspect() float64 {
	if c.YRes == 0 {
		return 1
	}
	return float64(c.XRes) / float64(c.YRes)
}

// Update validates the camera and recomputes the derived matrices. It must
// be called after any field changes and before Ray.
func (c *Camera) Update() error {
	if c.XRes <= 0 || c.YRes <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadResolution, c.XRes, c.YRes)
	}
	if c.Near <= 0 {
		c.Near = 1
	}
	if c.Far <= c.Near {
		c.Far = c.Near * 1000
	}

	dir := c.To.Sub(c.From)
	if dir.LenSq() == 0 {
		return fmt.Errorf("%w: from and to are both %v", ErrDegenerateCamera, c.From)
	}
	c.ViewDirection = dir.Normalize()

	up := c.Up
	if up.LenSq() == 0 {
		up = math3d.V3(0, 1, 0)
	}
	if c.ViewDirection.Cross(up.Normalize()).LenSq() < 1e-12 {
		// Looking straight along up; any perpendicular axis will do.
		up = math3d.V3(0, 0, 1)
		if c.ViewDirection.Cross(up).LenSq() < 1e-12 {
			up = math3d.V3(1, 0, 0)
		}
	}
	c.Up = up

	left, right, bottom, top := c.Left, c.Right, c.Bottom, c.Top
	if right == left || top == bottom {
		fov := c.FOV
		if fov <= 0 || fov >= 180 {
			fov = 60
		}
		top = c.Near * math.Tan(fov*math.Pi/360)
		bottom = -top
		right = top * c.Aspect()
		left = -right
	}

	c.View = math3d.LookAt(c.From, c.To, up)
	c.Projection = math3d.Frustum(left, right, bottom, top, c.Near, c.Far)

	inv, ok := c.Projection.Mul(c.View).Inverse()
	if !ok {
		return fmt.Errorf("%w: view-projection matrix is singular", ErrDegenerateCamera)
	}
	c.invViewProj = inv
	return nil
}

// Ray returns the primary ray through the centre of pixel (x, y). Row 0 is
// the top of the image.
func (c *Camera) Ray(x, y int) math3d.Ray {
	ndcX := (float64(x)+0.5)/float64(c.XRes)*2 - 1
	ndcY := 1 - (float64(y)+0.5)/float64(c.YRes)*2

	onNear := c.invViewProj.MulVec4(math3d.V4(ndcX, ndcY, -1, 1)).PerspectiveDivide()
	return math3d.NewRay(c.From, onNear.Sub(c.From))
}

// Orbit rotates From about the To point around the Up axis by yaw
// radians, keeping the distance to To.
func (c *Camera) Orbit(yaw float64) {
	axis := c.Up
	if axis.LenSq() == 0 {
		axis = math3d.V3(0, 1, 0)
	}
	rot := rotateAbout(axis.Normalize(), yaw)
	c.From = c.To.Add(rot.MulDir(c.From.Sub(c.To)))
}

// rotateAbout builds a rotation of angle radians about a unit axis.
func rotateAbout(axis math3d.Vec3, angle float64) math3d.Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	return math3d.Mat4{
		{t*x*x + c, t*x*y - s*z, t*x*z + s*y, 0},
		{t*x*y + s*z, t*y*y + c, t*y*z - s*x, 0},
		{t*x*z - s*y, t*y*z + s*x, t*z*z + c, 0},
		{0, 0, 0, 1},
	}
}
