package models

import "github.com/taigrr/whitted/pkg/math3d"

// Primitive names accepted by NewPrimitive.
const (
	PrimitiveTriangle = "triangle"
	PrimitiveQuad     = "quad"
	PrimitiveCube     = "cube"
)

// NewPrimitive returns a built-in unit mesh by name.
func NewPrimitive(name string) (*Mesh, bool) {
	var m *Mesh
	switch name {
	case PrimitiveTriangle:
		m = UnitTriangle()
	case PrimitiveQuad:
		m = UnitQuad()
	case PrimitiveCube:
		m = UnitCube()
	default:
		return nil, false
	}
	return m, true
}

// UnitTriangle is a triangle in the z=0 plane facing +Z with vertices
// (-0.5,-0.5), (0.5,-0.5) and (0,0.5).
func UnitTriangle() *Mesh {
	m := NewMesh(PrimitiveTriangle)
	t := Tri(math3d.V3(-0.5, -0.5, 0), math3d.V3(0.5, -0.5, 0), math3d.V3(0, 0.5, 0))
	t.V[0].UV = math3d.V2(0, 0)
	t.V[1].UV = math3d.V2(1, 0)
	t.V[2].UV = math3d.V2(0.5, 1)
	m.AddTriangle(t)
	m.CalculateBounds()
	return m
}

// UnitQuad is a 1x1 square in the z=0 plane facing +Z, centred on the
// origin.
func UnitQuad() *Mesh {
	m := NewMesh(PrimitiveQuad)
	addQuad(m,
		math3d.V3(-0.5, -0.5, 0), math3d.V3(0.5, -0.5, 0),
		math3d.V3(0.5, 0.5, 0), math3d.V3(-0.5, 0.5, 0))
	m.CalculateBounds()
	return m
}

// UnitCube is an axis-aligned cube of side 1 centred on the origin with
// outward facing flat normals.
func UnitCube() *Mesh {
	m := NewMesh(PrimitiveCube)
	p := func(x, y, z float64) math3d.Vec3 { return math3d.V3(x-0.5, y-0.5, z-0.5) }
	addQuad(m, p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1)) // +Z
	addQuad(m, p(1, 0, 0), p(0, 0, 0), p(0, 1, 0), p(1, 1, 0)) // -Z
	addQuad(m, p(1, 0, 1), p(1, 0, 0), p(1, 1, 0), p(1, 1, 1)) // +X
	addQuad(m, p(0, 0, 0), p(0, 0, 1), p(0, 1, 1), p(0, 1, 0)) // -X
	addQuad(m, p(0, 1, 1), p(1, 1, 1), p(1, 1, 0), p(0, 1, 0)) // +Y
	addQuad(m, p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1)) // -Y
	m.CalculateBounds()
	return m
}

// addQuad appends two triangles for the counter-clockwise quad a b c d.
func addQuad(m *Mesh, a, b, c, d math3d.Vec3) {
	t1 := Tri(a, b, c)
	t1.V[0].UV, t1.V[1].UV, t1.V[2].UV = math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(1, 1)
	t2 := Tri(a, c, d)
	t2.V[0].UV, t2.V[1].UV, t2.V[2].UV = math3d.V2(0, 0), math3d.V2(1, 1), math3d.V2(0, 1)
	m.AddTriangle(t1)
	m.AddTriangle(t2)
}
