package models

import (
	"fmt"
	"path/filepath"

	"github.com/fogleman/fauxgl"
	"github.com/taigrr/whitted/pkg/math3d"
)

// LoadFauxGL loads OBJ, STL and PLY files through fauxgl's parsers.
func LoadFauxGL(path string) (*Mesh, error) {
	src, err := fauxgl.LoadMesh(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	mesh := fromFauxGL(filepath.Base(path), src)
	mesh.CalculateNormals()
	mesh.CalculateBounds()
	return mesh, nil
}

func fromFauxGL(name string, src *fauxgl.Mesh) *Mesh {
	mesh := NewMesh(name)
	mesh.Triangles = make([]Triangle, 0, len(src.Triangles))
	for _, t := range src.Triangles {
		mesh.AddTriangle(Triangle{V: [3]Vertex{
			fauxglVertex(t.V1),
			fauxglVertex(t.V2),
			fauxglVertex(t.V3),
		}})
	}
	return mesh
}

func fauxglVertex(v fauxgl.Vertex) Vertex {
	return Vertex{
		Position: math3d.V3(v.Position.X, v.Position.Y, v.Position.Z),
		Normal:   math3d.V3(v.Normal.X, v.Normal.Y, v.Normal.Z),
		UV:       math3d.V2(v.Texture.X, v.Texture.Y),
	}
}
