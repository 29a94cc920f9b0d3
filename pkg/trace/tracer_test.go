package trace

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/models"
	"github.com/taigrr/whitted/pkg/scene"
)

func newTestScene() *scene.Scene {
	return scene.New()
}

func matte() scene.Material {
	return scene.Material{
		SurfaceColor:     math3d.One3(),
		Ka:               1,
		Kd:               1,
		SpecularExponent: 32,
	}
}

func mirror() scene.Material {
	m := matte()
	m.Reflective = true
	m.ReflectionStrength = 1
	return m
}

func addShape(s *scene.Scene, id string, mesh *models.Mesh, at math3d.Vec3, m scene.Material) *scene.Shape {
	s.AddMesh(id, mesh)
	tr := scene.Identity()
	tr.Translation = at
	s.AddShape(scene.Shape{ID: id, GeometryID: id, Material: m, Transform: tr})
	return &s.Shapes[len(s.Shapes)-1]
}

func mustTracer(t *testing.T, s *scene.Scene) *Tracer {
	t.Helper()
	tr, err := New(s, DefaultConfig())
	require.NoError(t, err)
	return tr
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1e-5, cfg.Epsilon)
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, math3d.V3(0.12, 0.12, 0.16), cfg.Background)
}

func TestNoHitReturnsBackground(t *testing.T) {
	s := newTestScene()
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), matte())
	tr := mustTracer(t, s)

	for _, dir := range []math3d.Vec3{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: -1, Z: 0.2}} {
		hit := NewHitInfo()
		color, ok := tr.Raycast(math3d.NewRay(math3d.V3(0, 0, 1), dir), &hit, 0)
		assert.False(t, ok)
		assert.Equal(t, DefaultConfig().Background, color)
	}

	empty := mustTracer(t, newTestScene())
	hit := NewHitInfo()
	color, ok := empty.Raycast(math3d.NewRay(math3d.Zero3(), math3d.V3(0, 0, -1)), &hit, 0)
	assert.False(t, ok)
	assert.Equal(t, DefaultConfig().Background, color)
}

func TestUnknownMeshIsFatal(t *testing.T) {
	s := newTestScene()
	s.AddShape(scene.Shape{ID: "ghost", GeometryID: "missing", Transform: scene.Identity()})
	_, err := New(s, DefaultConfig())
	assert.ErrorIs(t, err, scene.ErrUnknownMesh)
}

func TestUnknownTextureIsFatal(t *testing.T) {
	s := newTestScene()
	m := matte()
	m.TextureID = "missing"
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), m)
	_, err := New(s, DefaultConfig())
	assert.ErrorIs(t, err, scene.ErrUnknownTexture)
}

func TestNewRejectsBadResolution(t *testing.T) {
	s := newTestScene()
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), matte())
	s.Camera.XRes, s.Camera.YRes = 0, -3
	_, err := New(s, DefaultConfig())
	assert.ErrorIs(t, err, scene.ErrBadResolution)
}

func TestNewRejectsBadReflectionStrength(t *testing.T) {
	s := newTestScene()
	m := mirror()
	m.ReflectionStrength = 1.5
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), m)
	_, err := New(s, DefaultConfig())
	assert.ErrorIs(t, err, scene.ErrBadMaterial)
}

func TestNewPreparesCamera(t *testing.T) {
	s := newTestScene()
	quad := addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), matte())
	quad.Transform.Scale = math3d.V3(4, 4, 1)
	s.Camera.XRes, s.Camera.YRes = 4, 4
	tr := mustTracer(t, s)

	a := s.Camera.Ray(0, 0)
	b := s.Camera.Ray(3, 3)
	assert.False(t, math.IsNaN(a.Direction.X))
	assert.Less(t, a.Direction.Z, 0.0)
	assert.Less(t, a.Direction.X, 0.0)
	assert.Greater(t, b.Direction.X, 0.0)
	assert.NotEqual(t, DefaultConfig().Background, tr.Trace(2, 2))
}

func TestSingularShapeIsSkipped(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := newTestScene()
	flat := addShape(s, "flat", models.UnitQuad(), math3d.V3(0, 0, -1), matte())
	flat.Transform.Scale = math3d.V3(1, 0, 1)
	addShape(s, "ok", models.UnitQuad(), math3d.V3(0, 0, -2), matte())
	tr := mustTracer(t, s)

	hit := NewHitInfo()
	require.True(t, tr.Nearest(math3d.NewRay(math3d.V3(0.1, -0.2, 0), math3d.V3(0, 0, -1)), &hit))
	assert.Equal(t, "ok", hit.ShapeID)
	assert.Contains(t, logs.String(), "singular")
	assert.Contains(t, logs.String(), "flat")
}

func TestMixColors(t *testing.T) {
	a := math3d.V3(1, 0, 0)
	b := math3d.V3(0, 0, 1)
	assert.Equal(t, a, MixColors(a, b, 0))
	assert.Equal(t, b, MixColors(a, b, 1))
	assert.Equal(t, math3d.V3(0.5, 0, 0.5), MixColors(a, b, 0.5))
}

func TestAmbientAndDirectionalCenterPixel(t *testing.T) {
	s := newTestScene()
	m := matte()
	addShape(s, "tri", models.UnitTriangle(), math3d.Zero3(), m)
	s.Ambient = scene.Light{Type: scene.LightAmbient, Color: math3d.One3(), Intensity: 0.2}
	s.Directional = scene.Light{
		Type:      scene.LightDirectional,
		Color:     math3d.One3(),
		Intensity: 1,
		Direction: math3d.V3(0, -1, -1).Normalize(),
	}
	s.Camera.XRes, s.Camera.YRes = 1, 1
	require.NoError(t, s.Validate())
	tr := mustTracer(t, s)

	color := tr.Trace(0, 0)

	ambientOnly := 0.2
	full := 0.2 + 1.0
	for i := range 3 {
		c := color.At(i)
		assert.Greater(t, c, ambientOnly)
		assert.Less(t, c, full)
		assert.InDelta(t, 0.2+1/math.Sqrt2, c, 1e-9)
	}

	stats := tr.Stats()
	assert.EqualValues(t, 1, stats.PrimaryRays)
	assert.EqualValues(t, 1, stats.ShadowRays)
	assert.EqualValues(t, 0, stats.ReflectionRays)
}

func TestSpecularHighlight(t *testing.T) {
	s := newTestScene()
	m := matte()
	m.Ka, m.Kd, m.Ks = 0, 0, 1
	m.SpecularExponent = 1
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), m)
	s.Directional = scene.Light{Type: scene.LightDirectional, Color: math3d.One3(), Intensity: 1, Direction: math3d.V3(0, 0, -1)}
	tr := mustTracer(t, s)

	// Head-on view: the reflected light points straight back at the eye.
	hit := NewHitInfo()
	color, ok := tr.Raycast(math3d.NewRay(math3d.V3(0.2, -0.1, 1), math3d.V3(0, 0, -1)), &hit, 0)
	require.True(t, ok)
	assert.True(t, color.NearlyEqual(math3d.One3(), 1e-9), "got %v", color)
}

func TestBackFaceIsLitFromItsSide(t *testing.T) {
	s := newTestScene()
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), matte())
	// Light and eye are both below the quad, which faces +Z.
	s.Directional = scene.Light{Type: scene.LightDirectional, Color: math3d.One3(), Intensity: 1, Direction: math3d.V3(0, 0, 1)}
	tr := mustTracer(t, s)

	hit := NewHitInfo()
	color, ok := tr.Raycast(math3d.NewRay(math3d.V3(0.2, -0.1, -1), math3d.V3(0, 0, 1)), &hit, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, color.X, 1e-9)
}

func TestShadows(t *testing.T) {
	floorRay := math3d.NewRay(math3d.V3(3, 0, 3), math3d.V3(-1, 0, -1))
	blocker := func() *models.Mesh { return models.UnitTriangle() }

	tests := []struct {
		name    string
		light   scene.Light
		blocker math3d.Vec3
		lit     bool
	}{
		{
			name:    "point light unobstructed",
			light:   scene.Light{Type: scene.LightPoint, Color: math3d.One3(), Intensity: 1, Position: math3d.V3(0, 0, 2)},
			blocker: math3d.V3(0, 40, 1.5),
			lit:     true,
		},
		{
			name:    "point light blocked",
			light:   scene.Light{Type: scene.LightPoint, Color: math3d.One3(), Intensity: 1, Position: math3d.V3(0, 0, 2)},
			blocker: math3d.V3(0, 0, 1.5),
			lit:     false,
		},
		{
			name:    "point light with blocker beyond it",
			light:   scene.Light{Type: scene.LightPoint, Color: math3d.One3(), Intensity: 1, Position: math3d.V3(0, 0, 2)},
			blocker: math3d.V3(0, 0, 3),
			lit:     true,
		},
		{
			name:    "directional light blocked far away",
			light:   scene.Light{Type: scene.LightDirectional, Color: math3d.One3(), Intensity: 1, Direction: math3d.V3(0, 0, -1)},
			blocker: math3d.V3(0, 0, 50),
			lit:     false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestScene()
			floor := addShape(s, "floor", models.UnitQuad(), math3d.V3(1, -2, 0), matte())
			floor.Transform.Scale = math3d.V3(10, 10, 1)
			b := addShape(s, "blocker", blocker(), tc.blocker, matte())
			b.Transform.Scale = math3d.V3(0.5, 0.5, 0.5)
			s.Lights = []scene.Light{}
			if tc.light.Type == scene.LightDirectional {
				s.Directional = tc.light
			} else {
				s.Lights = append(s.Lights, tc.light)
			}
			tr := mustTracer(t, s)

			hit := NewHitInfo()
			color, ok := tr.Raycast(floorRay, &hit, 0)
			require.True(t, ok)
			require.Equal(t, "floor", hit.ShapeID)
			if tc.lit {
				assert.Greater(t, color.X, 0.0)
			} else {
				assert.Equal(t, math3d.Zero3(), color)
			}
		})
	}
}

func TestFacingMirrorsStopAtMaxDepth(t *testing.T) {
	for _, depth := range []int{0, 1, DefaultMaxDepth} {
		s := newTestScene()
		a := addShape(s, "a", models.UnitQuad(), math3d.V3(0, 0, -2), mirror())
		a.Transform.Scale = math3d.V3(10, 10, 1)
		b := addShape(s, "b", models.UnitQuad(), math3d.V3(0, 0, 2), mirror())
		b.Transform.Scale = math3d.V3(10, 10, 1)

		cfg := DefaultConfig()
		cfg.MaxDepth = depth
		tr, err := New(s, cfg)
		require.NoError(t, err)

		hit := NewHitInfo()
		_, ok := tr.Raycast(math3d.NewRay(math3d.Zero3(), math3d.V3(0, 0.01, -1)), &hit, 0)
		require.True(t, ok)

		stats := tr.Stats()
		assert.EqualValues(t, depth, stats.ReflectionRays)
		assert.EqualValues(t, depth, stats.DeepestBounce)
	}
}

func TestReflectionBlendsWithLocalColor(t *testing.T) {
	s := newTestScene()
	m := matte()
	m.SurfaceColor = math3d.V3(1, 0, 0)
	m.Reflective = true
	m.ReflectionStrength = 0.25
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), m)
	s.Ambient = scene.Light{Type: scene.LightAmbient, Color: math3d.One3(), Intensity: 1}
	tr := mustTracer(t, s)

	hit := NewHitInfo()
	color, ok := tr.Raycast(math3d.NewRay(math3d.V3(0.2, -0.1, 1), math3d.V3(0, 0, -1)), &hit, 0)
	require.True(t, ok)
	// The reflected ray escapes, so it brings back the background.
	want := MixColors(math3d.V3(1, 0, 0), DefaultConfig().Background, 0.25)
	assert.True(t, color.NearlyEqual(want, 1e-12), "got %v want %v", color, want)
}

func TestTextureModulatesSurface(t *testing.T) {
	red := math3d.V3(1, 0, 0)
	blue := math3d.V3(0, 0, 1)

	s := newTestScene()
	s.AddTexture("checker", models.NewCheckerTexture(2, 2, 1, red, blue))
	m := matte()
	m.TextureID = "checker"
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), m)
	s.Ambient = scene.Light{Type: scene.LightAmbient, Color: math3d.One3(), Intensity: 1}
	tr := mustTracer(t, s)

	shade := func(x, y float64) math3d.Vec3 {
		hit := NewHitInfo()
		c, ok := tr.Raycast(math3d.NewRay(math3d.V3(x, y, 1), math3d.V3(0, 0, -1)), &hit, 0)
		require.True(t, ok)
		return c
	}
	assert.Equal(t, red, shade(-0.3, 0.2))
	assert.Equal(t, blue, shade(0.3, 0.2))
}

func TestResetStats(t *testing.T) {
	s := newTestScene()
	addShape(s, "quad", models.UnitQuad(), math3d.Zero3(), matte())
	s.Camera.XRes, s.Camera.YRes = 2, 2
	require.NoError(t, s.Validate())
	tr := mustTracer(t, s)

	tr.Trace(0, 0)
	tr.Trace(1, 1)
	assert.EqualValues(t, 2, tr.Stats().PrimaryRays)
	tr.ResetStats()
	assert.Equal(t, Stats{}, tr.Stats())
}

func BenchmarkTraceCube(b *testing.B) {
	s := newTestScene()
	cube := addShape(s, "cube", models.UnitCube(), math3d.Zero3(), mirror())
	cube.Transform.Rotation = math3d.V3(30, 45, 0)
	s.Directional = scene.Light{Type: scene.LightDirectional, Color: math3d.One3(), Intensity: 1, Direction: math3d.V3(-1, -1, -1)}
	s.Camera.XRes, s.Camera.YRes = 32, 32
	if err := s.Validate(); err != nil {
		b.Fatal(err)
	}
	tr, err := New(s, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		tr.Trace(16, 16)
	}
}
