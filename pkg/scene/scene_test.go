package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/models"
)

func triangleScene() *Scene {
	s := New()
	s.AddMesh("tri", models.UnitTriangle())
	s.AddShape(Shape{ID: "a", GeometryID: "tri", Material: DefaultMaterial(), Transform: Identity()})
	return s
}

func TestValidateAcceptsMinimalScene(t *testing.T) {
	s := triangleScene()
	require.NoError(t, s.Validate())
	assert.Equal(t, 1, s.TriangleCount())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	s := triangleScene()
	s.Camera.XRes = 0
	s.AddShape(Shape{ID: "a", GeometryID: "tri", Transform: Identity()})
	s.AddShape(Shape{ID: "b", GeometryID: "missing", Transform: Identity()})
	s.AddShape(Shape{
		ID:         "c",
		GeometryID: "tri",
		Transform:  Identity(),
		Material:   Material{TextureID: "nope"},
	})
	s.AddShape(Shape{
		ID:         "d",
		GeometryID: "tri",
		Transform:  Identity(),
		Material:   Material{Reflective: true, ReflectionStrength: 1.01},
	})

	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResolution)
	assert.ErrorIs(t, err, ErrDuplicateShape)
	assert.ErrorIs(t, err, ErrUnknownMesh)
	assert.ErrorIs(t, err, ErrUnknownTexture)
	assert.ErrorIs(t, err, ErrBadMaterial)
}

func TestValidateReflectionStrengthBounds(t *testing.T) {
	for _, rs := range []float64{0, 0.5, 1} {
		s := triangleScene()
		s.Shapes[0].Material.ReflectionStrength = rs
		assert.NoError(t, s.Validate(), "strength %g", rs)
	}
	for _, rs := range []float64{-0.01, 1.5, math.NaN()} {
		s := triangleScene()
		s.Shapes[0].Material.ReflectionStrength = rs
		assert.ErrorIs(t, s.Validate(), ErrBadMaterial, "strength %g", rs)
	}
}

func TestNilMeshIsUnknown(t *testing.T) {
	s := New()
	s.AddMesh("nil", nil)
	s.AddShape(Shape{ID: "x", GeometryID: "nil", Transform: Identity()})
	assert.ErrorIs(t, s.Validate(), ErrUnknownMesh)
}

func TestLightRadiance(t *testing.T) {
	l := Light{Type: LightPoint, Color: math3d.V3(1, 0.5, 0), Intensity: 2}
	assert.Equal(t, math3d.V3(2, 1, 0), l.Radiance())
	assert.True(t, l.Enabled())
	assert.False(t, Light{Color: math3d.One3()}.Enabled())
}

func TestModelMatrixOrder(t *testing.T) {
	tr := Transformation{
		Scale:       math3d.V3(2, 1, 1),
		Rotation:    math3d.V3(0, 0, 90),
		Translation: math3d.V3(0, 0, 5),
	}
	// Scale first (2,0,0), then rotate about Z (0,2,0), then translate.
	got := tr.ModelMatrix().MulPoint(math3d.V3(1, 0, 0))
	assert.True(t, got.NearlyEqual(math3d.V3(0, 2, 5), 1e-9), "got %v", got)
}

func TestModelMatrixRotationOrder(t *testing.T) {
	tr := Identity()
	tr.Rotation = math3d.V3(90, 90, 0)
	// Rx maps +Y to +Z, then Ry maps +Z to +X.
	got := tr.ModelMatrix().MulPoint(math3d.V3(0, 1, 0))
	assert.True(t, got.NearlyEqual(math3d.V3(1, 0, 0), 1e-9), "got %v", got)
}

func TestIdentityTransform(t *testing.T) {
	assert.True(t, Identity().ModelMatrix().NearlyEqual(math3d.Identity(), 0))
}

func TestZeroScaleIsSingular(t *testing.T) {
	tr := Identity()
	tr.Scale = math3d.V3(1, 0, 1)
	_, ok := tr.ModelMatrix().InverseTranspose()
	assert.False(t, ok)
}
