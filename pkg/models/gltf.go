package models

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/whitted/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// CalculateNormals fills missing vertex normals with face normals.
	CalculateNormals bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{CalculateNormals: true}
}

// LoadGLTF loads a .gltf or .glb file with the default loader.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file. Every triangle primitive of every mesh in
// the document is flattened into one Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	r := accessorReader{doc: doc}
	for _, m := range doc.Meshes {
		if err := r.appendMesh(m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if l.CalculateNormals {
		if !mesh.HasNormals() {
			slog.Debug("gltf has no vertex normals, using face normals", "file", mesh.Name)
		}
		mesh.CalculateNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

type accessorReader struct {
	doc *gltf.Document
}

func (r accessorReader) appendMesh(m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Lines and points have no surface to hit.
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := r.vec3s(posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}
		var normals []math3d.Vec3
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = r.vec3s(idx); err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}
		var uvs []math3d.Vec2
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = r.vec2s(idx); err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		vertex := func(i int) Vertex {
			v := Vertex{Position: positions[i]}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			if i < len(uvs) {
				// glTF puts V=0 at the top of the image.
				v.UV = math3d.V2(uvs[i].X, 1-uvs[i].Y)
			}
			return v
		}

		var indices []int
		if prim.Indices != nil {
			if indices, err = r.indices(*prim.Indices); err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			var t Triangle
			for k := range 3 {
				idx := indices[i+k]
				if idx < 0 || idx >= len(positions) {
					return fmt.Errorf("index %d out of range (%d vertices)", idx, len(positions))
				}
				t.V[k] = vertex(idx)
			}
			mesh.AddTriangle(t)
		}
	}
	return nil
}

// view returns the raw bytes backing an accessor plus the element stride.
func (r accessorReader) view(accessorIdx int, elemSize int) (*gltf.Accessor, []byte, int, error) {
	if accessorIdx < 0 || accessorIdx >= len(r.doc.Accessors) {
		return nil, nil, 0, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	acc := r.doc.Accessors[accessorIdx]
	if acc.BufferView == nil {
		return nil, nil, 0, errors.New("accessor has no buffer view")
	}
	bv := r.doc.BufferViews[*acc.BufferView]
	data := r.doc.Buffers[bv.Buffer].Data
	if data == nil {
		return nil, nil, 0, errors.New("buffer has no data")
	}

	stride := bv.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := bv.ByteOffset + acc.ByteOffset
	end := start
	if acc.Count > 0 {
		end = start + (acc.Count-1)*stride + elemSize
	}
	if end > len(data) {
		return nil, nil, 0, fmt.Errorf("accessor %d overruns buffer (%d > %d)", accessorIdx, end, len(data))
	}
	return acc, data[start:end], stride, nil
}

func (r accessorReader) floats(accessorIdx int, want gltf.AccessorType, n int) ([][3]float64, error) {
	if accessorIdx < 0 || accessorIdx >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	acc := r.doc.Accessors[accessorIdx]
	if acc.Type != want {
		return nil, fmt.Errorf("expected %v, got %v", want, acc.Type)
	}
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", acc.ComponentType)
	}
	_, data, stride, err := r.view(accessorIdx, 4*n)
	if err != nil {
		return nil, err
	}

	out := make([][3]float64, acc.Count)
	for i := range acc.Count {
		off := i * stride
		for j := range n {
			bits := binary.LittleEndian.Uint32(data[off+j*4:])
			out[i][j] = float64(math.Float32frombits(bits))
		}
	}
	return out, nil
}

func (r accessorReader) vec3s(accessorIdx int) ([]math3d.Vec3, error) {
	raw, err := r.floats(accessorIdx, gltf.AccessorVec3, 3)
	if err != nil {
		return nil, err
	}
	out := make([]math3d.Vec3, len(raw))
	for i, f := range raw {
		out[i] = math3d.V3(f[0], f[1], f[2])
	}
	return out, nil
}

func (r accessorReader) vec2s(accessorIdx int) ([]math3d.Vec2, error) {
	raw, err := r.floats(accessorIdx, gltf.AccessorVec2, 2)
	if err != nil {
		return nil, err
	}
	out := make([]math3d.Vec2, len(raw))
	for i, f := range raw {
		out[i] = math3d.V2(f[0], f[1])
	}
	return out, nil
}

func (r accessorReader) indices(accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	acc := r.doc.Accessors[accessorIdx]
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", acc.Type)
	}

	var size int
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", acc.ComponentType)
	}

	_, data, stride, err := r.view(accessorIdx, size)
	if err != nil {
		return nil, err
	}
	out := make([]int, acc.Count)
	for i := range acc.Count {
		off := i * stride
		switch size {
		case 1:
			out[i] = int(data[off])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(data[off:]))
		case 4:
			out[i] = int(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return out, nil
}

// LoadGLTFImage returns the first image embedded in or referenced by a
// GLTF/GLB file.
func LoadGLTFImage(path string) (image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	for _, img := range doc.Images {
		var data []byte
		switch {
		case img.BufferView != nil:
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer].Data
			if buf == nil || bv.ByteOffset+bv.ByteLength > len(buf) {
				continue
			}
			data = buf[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
		case img.URI != "":
			data, err = os.ReadFile(filepath.Join(filepath.Dir(path), img.URI))
			if err != nil {
				continue
			}
		default:
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err == nil {
			return decoded, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNoImage)
}
