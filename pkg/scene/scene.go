// Package scene describes what is rendered: a camera, lights, and shapes
// that place meshes from a shared lookup table into the world.
package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/models"
)

// Configuration errors reported by Validate and Load.
var (
	ErrBadResolution    = errors.New("camera resolution must be positive")
	ErrDegenerateCamera = errors.New("degenerate camera")
	ErrUnknownMesh      = errors.New("unknown mesh")
	ErrUnknownTexture   = errors.New("unknown texture")
	ErrDuplicateShape   = errors.New("duplicate shape id")
	ErrBadMaterial      = errors.New("invalid material")
)

// Material describes how a surface responds to light.
type Material struct {
	SurfaceColor     math3d.Vec3
	Ka               float64 // ambient coefficient
	Kd               float64 // diffuse coefficient
	Ks               float64 // specular coefficient
	Kt               float64 // transmission; carried for completeness, refraction is not rendered
	SpecularExponent float64
	TextureID        string // optional key into Scene.Textures

	Reflective         bool
	ReflectionStrength float64 // in [0, 1]; 0 = local color only, 1 = mirror
}

// DefaultMaterial is a matte white surface.
func DefaultMaterial() Material {
	return Material{
		SurfaceColor:     math3d.One3(),
		Ka:               0.1,
		Kd:               0.8,
		Ks:               0.2,
		SpecularExponent: 32,
	}
}

// LightType distinguishes how a light's direction is derived.
type LightType string

const (
	LightDirectional LightType = "directional"
	LightPoint       LightType = "point"
	LightAmbient     LightType = "ambient"
)

// Light is a colored light source. Zero intensity means absent.
type Light struct {
	Type      LightType
	Color     math3d.Vec3
	Intensity float64
	Direction math3d.Vec3 // direction the light travels (directional)
	Position  math3d.Vec3 // world position (point)
}

// Radiance returns Color scaled by Intensity.
func (l Light) Radiance() math3d.Vec3 {
	return l.Color.Scale(l.Intensity)
}

// Enabled reports whether the light contributes anything.
func (l Light) Enabled() bool {
	return l.Intensity > 0 && l.Color.LenSq() > 0
}

// Shape is one placed instance of a mesh.
type Shape struct {
	ID         string
	GeometryID string // key into Scene.Meshes
	Material   Material
	Transform  Transformation
	Notes      string
}

// Scene owns every mesh and texture; shapes refer to them by identifier
// so one mesh can be instanced many times. A Scene must not be modified
// while a render is in progress.
type Scene struct {
	Shapes   []Shape
	Meshes   map[string]*models.Mesh
	Textures map[string]*models.Texture
	Camera   Camera
	Lights   []Light

	// Directional and Ambient are folded into shading separately from
	// Lights.
	Directional Light
	Ambient     Light
}

// New returns an empty scene with a default camera.
func New() *Scene {
	return &Scene{
		Meshes:   make(map[string]*models.Mesh),
		Textures: make(map[string]*models.Texture),
		Camera:   DefaultCamera(),
		Directional: Light{
			Type: LightDirectional,
		},
		Ambient: Light{
			Type: LightAmbient,
		},
	}
}

// AddMesh registers a mesh under id, replacing any previous one.
func (s *Scene) AddMesh(id string, m *models.Mesh) {
	if s.Meshes == nil {
		s.Meshes = make(map[string]*models.Mesh)
	}
	s.Meshes[id] = m
}

// AddTexture registers a texture under id.
func (s *Scene) AddTexture(id string, t *models.Texture) {
	if s.Textures == nil {
		s.Textures = make(map[string]*models.Texture)
	}
	s.Textures[id] = t
}

// AddShape appends a shape.
func (s *Scene) AddShape(sh Shape) {
	s.Shapes = append(s.Shapes, sh)
}

// Mesh looks up a mesh by identifier.
func (s *Scene) Mesh(id string) (*models.Mesh, bool) {
	m, ok := s.Meshes[id]
	return m, ok && m != nil
}

// Texture looks up a texture by identifier.
func (s *Scene) Texture(id string) (*models.Texture, bool) {
	t, ok := s.Textures[id]
	return t, ok && t != nil
}

// TriangleCount returns the number of triangles tested per ray.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, sh := range s.Shapes {
		if m, ok := s.Mesh(sh.GeometryID); ok {
			n += m.TriangleCount()
		}
	}
	return n
}

// Validate checks the scene before rendering and prepares the camera
// matrices. All problems found are returned together.
func (s *Scene) Validate() error {
	var errs []error

	if err := s.Camera.Update(); err != nil {
		errs = append(errs, fmt.Errorf("camera: %w", err))
	}

	seen := make(map[string]bool, len(s.Shapes))
	for i, sh := range s.Shapes {
		name := sh.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		} else if seen[sh.ID] {
			errs = append(errs, fmt.Errorf("shape %q: %w", sh.ID, ErrDuplicateShape))
		}
		seen[sh.ID] = true

		if _, ok := s.Mesh(sh.GeometryID); !ok {
			errs = append(errs, fmt.Errorf("shape %s: %w %q", name, ErrUnknownMesh, sh.GeometryID))
		}
		if id := sh.Material.TextureID; id != "" {
			if _, ok := s.Texture(id); !ok {
				errs = append(errs, fmt.Errorf("shape %s: %w %q", name, ErrUnknownTexture, id))
			}
		}
		if rs := sh.Material.ReflectionStrength; !(rs >= 0 && rs <= 1) {
			errs = append(errs, fmt.Errorf("shape %s: %w: reflection strength %g outside [0, 1]", name, ErrBadMaterial, rs))
		}
	}

	return errors.Join(errs...)
}
