// Package trace implements recursive Whitted-style ray tracing over a
// scene: nearest-hit search, Phong shading with hard shadows, and mirror
// reflection bounded by a maximum depth.
package trace

import (
	"fmt"
	"log/slog"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/models"
	"github.com/taigrr/whitted/pkg/scene"
)

// DefaultMaxDepth bounds the reflection chain.
const DefaultMaxDepth = 5

// Config holds the tracer's numeric settings.
type Config struct {
	Epsilon    float64     // determinant rejection and shadow/reflection offset
	MaxDepth   int         // reflection bounces allowed after the primary hit
	Background math3d.Vec3 // color of rays that hit nothing
}

// DefaultConfig returns Epsilon 1e-5, MaxDepth 5 and a dark slate
// background.
func DefaultConfig() Config {
	return Config{
		Epsilon:    math3d.Epsilon,
		MaxDepth:   DefaultMaxDepth,
		Background: math3d.V3(0.12, 0.12, 0.16),
	}
}

// instance is a shape with its triangles already in world space.
type instance struct {
	id        string
	material  scene.Material
	texture   *models.Texture
	triangles []worldTriangle
}

// Tracer answers ray queries against a scene. It is safe for concurrent
// use as long as the scene is not modified.
type Tracer struct {
	scene     *scene.Scene
	cfg       Config
	instances []instance
	stats     counters
}

// New validates the scene and prepares a tracer. Every shape must name a
// mesh in the scene's mesh table; a shape whose model matrix cannot be
// inverted is skipped with a warning.
func New(s *scene.Scene, cfg Config) (*Tracer, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = math3d.Epsilon
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}

	t := &Tracer{scene: s, cfg: cfg}
	for _, sh := range s.Shapes {
		mesh, ok := s.Mesh(sh.GeometryID)
		if !ok {
			return nil, fmt.Errorf("shape %q: %w %q", sh.ID, scene.ErrUnknownMesh, sh.GeometryID)
		}

		var tex *models.Texture
		if id := sh.Material.TextureID; id != "" {
			if tex, ok = s.Texture(id); !ok {
				return nil, fmt.Errorf("shape %q: %w %q", sh.ID, scene.ErrUnknownTexture, id)
			}
		}

		model := sh.Transform.ModelMatrix()
		normalMat, ok := model.InverseTranspose()
		if !ok {
			slog.Warn("skipping shape with singular transform",
				"shape", sh.ID, "geometry", sh.GeometryID, "scale", sh.Transform.Scale)
			continue
		}

		inst := instance{
			id:        sh.ID,
			material:  sh.Material,
			texture:   tex,
			triangles: make([]worldTriangle, 0, len(mesh.Triangles)),
		}
		for _, tri := range mesh.Triangles {
			inst.triangles = append(inst.triangles, toWorld(tri, model, normalMat))
		}
		t.instances = append(t.instances, inst)
	}

	slog.Debug("tracer ready",
		"shapes", len(t.instances), "triangles", s.TriangleCount(), "max_depth", cfg.MaxDepth)
	return t, nil
}

// Trace shades the primary ray through pixel (x, y) of the scene camera.
func (t *Tracer) Trace(x, y int) math3d.Vec3 {
	t.stats.primary.Add(1)
	hit := NewHitInfo()
	color, _ := t.Raycast(t.scene.Camera.Ray(x, y), &hit, 0)
	return color
}
