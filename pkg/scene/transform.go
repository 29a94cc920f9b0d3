package scene

import (
	"math"

	"github.com/taigrr/whitted/pkg/math3d"
)

// Transformation places a mesh in the world. Rotation is in degrees
// about each axis.
type Transformation struct {
	Scale       math3d.Vec3
	Rotation    math3d.Vec3
	Translation math3d.Vec3
}

// Identity returns a transformation that leaves a mesh unchanged.
func Identity() Transformation {
	return Transformation{Scale: math3d.One3()}
}

// ModelMatrix composes T · Rz · Ry · Rx · S: a mesh is scaled first,
// then rotated about X, Y and Z in that order, then translated. Normals
// must go through the inverse-transpose of this same matrix.
func (t Transformation) ModelMatrix() math3d.Mat4 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	return math3d.Translate(t.Translation).
		Mul(math3d.RotateZ(rad(t.Rotation.Z))).
		Mul(math3d.RotateY(rad(t.Rotation.Y))).
		Mul(math3d.RotateX(rad(t.Rotation.X))).
		Mul(math3d.Scale(t.Scale))
}
