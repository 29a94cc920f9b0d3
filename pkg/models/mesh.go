// Package models holds triangle mesh geometry and textures and loads them
// from asset files.
package models

import (
	"github.com/taigrr/whitted/pkg/math3d"
)

// Vertex bundles a position, a normal and a texture coordinate.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Triangle is three vertices. Winding only matters for the geometric
// normal; intersection is double sided.
type Triangle struct {
	V [3]Vertex
}

// Tri builds a triangle from three positions, giving every vertex the
// geometric normal.
func Tri(a, b, c math3d.Vec3) Triangle {
	t := Triangle{V: [3]Vertex{{Position: a}, {Position: b}, {Position: c}}}
	n := t.GeometricNormal()
	for i := range t.V {
		t.V[i].Normal = n
	}
	return t
}

// GeometricNormal returns the unit normal of the triangle's plane, or the
// zero vector for a degenerate triangle.
func (t Triangle) GeometricNormal() math3d.Vec3 {
	edge1 := t.V[1].Position.Sub(t.V[0].Position)
	edge2 := t.V[2].Position.Sub(t.V[0].Position)
	return edge1.Cross(edge2).Normalize()
}

// Centroid returns the average of the three positions.
func (t Triangle) Centroid() math3d.Vec3 {
	return t.V[0].Position.Add(t.V[1].Position).Add(t.V[2].Position).Scale(1.0 / 3)
}

// Mesh is an ordered collection of triangles.
type Mesh struct {
	Name      string
	Triangles []Triangle

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Triangles: make([]Triangle, 0),
	}
}

// AddTriangle appends a triangle.
func (m *Mesh) AddTriangle(t Triangle) {
	m.Triangles = append(m.Triangles, t)
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Triangles) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}

	m.BoundsMin = m.Triangles[0].V[0].Position
	m.BoundsMax = m.BoundsMin
	for _, t := range m.Triangles {
		for _, v := range t.V {
			m.BoundsMin = m.BoundsMin.Min(v.Position)
			m.BoundsMax = m.BoundsMax.Max(v.Position)
		}
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// HasNormals reports whether any vertex carries a non-zero normal.
func (m *Mesh) HasNormals() bool {
	for _, t := range m.Triangles {
		for _, v := range t.V {
			if v.Normal.LenSq() > 1e-6 {
				return true
			}
		}
	}
	return false
}

// CalculateNormals fills zero vertex normals with the face normal
// (flat shading). Normals supplied by the asset are kept.
func (m *Mesh) CalculateNormals() {
	for i := range m.Triangles {
		t := &m.Triangles[i]
		n := t.GeometricNormal()
		for j := range t.V {
			if t.V[j].Normal.LenSq() <= 1e-12 {
				t.V[j].Normal = n
			}
		}
	}
}

// GetBounds returns the axis-aligned bounding box.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}
