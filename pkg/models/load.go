package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for asset extensions no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNoImage is returned when an asset holds no decodable image.
	ErrNoImage = errors.New("no image found")
)

// Load reads a mesh asset, choosing the loader by file extension:
// .gltf/.glb through qmuntal/gltf and .obj/.stl/.ply through fauxgl.
func Load(path string) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gltf", ".glb":
		return LoadGLTF(path)
	case ".obj", ".stl", ".ply":
		return LoadFauxGL(path)
	default:
		return nil, fmt.Errorf("%s: %w %q (use .glb, .gltf, .obj, .stl or .ply)", path, ErrUnsupportedFormat, ext)
	}
}
