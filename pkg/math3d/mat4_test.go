package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample is an arbitrary well-conditioned affine transform with
// non-uniform scale.
func sample() Mat4 {
	return Translate(V3(1, -2, 3)).
		Mul(RotateZ(0.3)).
		Mul(RotateY(-1.1)).
		Mul(RotateX(0.7)).
		Mul(Scale(V3(2, 0.5, 3)))
}

func TestMat4MulIdentity(t *testing.T) {
	m := sample()
	assert.True(t, m.Mul(Identity()).NearlyEqual(m, 1e-12))
	assert.True(t, Identity().Mul(m).NearlyEqual(m, 1e-12))
}

func TestMat4AddSub(t *testing.T) {
	m := sample()
	assert.True(t, m.Add(m).Sub(m).NearlyEqual(m, 1e-12))
	assert.Equal(t, Mat4{}, m.Sub(m))
}

func TestMat4Transpose(t *testing.T) {
	m := sample()
	assert.Equal(t, m, m.Transpose().Transpose())
	assert.Equal(t, m.Get(0, 3), m.Transpose().Get(3, 0))
}

func TestMat4MulPoint(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(Scale(V3(2, 2, 2)))
	assert.Equal(t, V3(3, 4, 5), m.MulPoint(V3(1, 1, 1)))
	// Directions ignore translation.
	assert.Equal(t, V3(2, 2, 2), m.MulDir(V3(1, 1, 1)))
}

func TestMat4RotationsAreRightHanded(t *testing.T) {
	quarter := math.Pi / 2
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"x takes y to z", RotateX(quarter), V3(0, 1, 0), V3(0, 0, 1)},
		{"y takes z to x", RotateY(quarter), V3(0, 0, 1), V3(1, 0, 0)},
		{"z takes x to y", RotateZ(quarter), V3(1, 0, 0), V3(0, 1, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.m.MulDir(tc.in)
			assert.True(t, got.NearlyEqual(tc.want, 1e-12), "got %v, want %v", got, tc.want)
		})
	}
}

func TestMat4Determinant(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		want float64
	}{
		{"identity", Identity(), 1},
		{"scale", Scale(V3(2, 3, 4)), 24},
		{"translated scale", Translate(V3(5, 6, 7)).Mul(Scale(V3(2, 3, 4))), 24},
		{"rotation", RotateY(1.234), 1},
		{"zero", Mat4{}, 0},
		{"general", Mat4{
			{1, 2, 3, 4},
			{5, 6, 7, 8},
			{2, 6, 4, 8},
			{3, 1, 1, 2},
		}, 72},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.m.Determinant(), 1e-9)
		})
	}
}

func TestMat4DeterminantIsMultiplicative(t *testing.T) {
	a := sample()
	b := Mat4{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{2, 6, 4, 8},
		{3, 1, 1, 2},
	}
	assert.InDelta(t, a.Determinant()*b.Determinant(), a.Mul(b).Determinant(), 1e-9)
}

func TestMat4Inverse(t *testing.T) {
	m := sample()
	inv, ok := m.Inverse()
	require.True(t, ok)
	assert.True(t, m.Mul(inv).NearlyEqual(Identity(), 1e-9))
	assert.True(t, inv.Mul(m).NearlyEqual(Identity(), 1e-9))
}

func TestMat4AdjointScalesInverse(t *testing.T) {
	m := sample()
	inv, ok := m.Inverse()
	require.True(t, ok)
	det := m.Determinant()
	adj := m.Adjoint()
	for i := range 4 {
		for j := range 4 {
			assert.InDelta(t, inv[i][j]*det, adj[i][j], 1e-9)
		}
	}
}

func TestMat4InverseSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"zero", Mat4{}},
		{"flattened", Scale(V3(1, 0, 1))},
		{"below threshold", Scale(V3(1e-4, 1e-4, 1e-4))},
		{"repeated row", Mat4{
			{1, 2, 3, 4},
			{1, 2, 3, 4},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, ok := tc.m.Inverse()
			assert.False(t, ok)
			assert.Equal(t, Mat4{}, inv)

			it, ok := tc.m.InverseTranspose()
			assert.False(t, ok)
			assert.Equal(t, Mat4{}, it)
		})
	}
}

func TestMat4InverseTransposeRotationIsRotation(t *testing.T) {
	r := RotateX(0.4).Mul(RotateZ(-0.9))
	it, ok := r.InverseTranspose()
	require.True(t, ok)
	for i := range 3 {
		for j := range 3 {
			assert.InDelta(t, r[i][j], it[i][j], 1e-12)
		}
	}
	assert.Equal(t, 1.0, it[3][3])
}

func TestMat4InverseTransposeKeepsNormalsPerpendicular(t *testing.T) {
	m := Scale(V3(2, 1, 1))
	normal := V3(1, 1, 0).Normalize()
	tangent := V3(1, -1, 0)

	it, ok := m.InverseTranspose()
	require.True(t, ok)

	n := it.MulDir(normal)
	tan := m.MulDir(tangent)
	assert.InDelta(t, 0, n.Dot(tan), 1e-12)

	// The model matrix itself does not preserve perpendicularity here.
	assert.NotEqual(t, 0.0, m.MulDir(normal).Dot(tan))
}

func TestMat4InverseTransposeRoundTrip(t *testing.T) {
	models := []Mat4{
		Identity(),
		sample(),
		Scale(V3(0.1, 10, 3)),
		Translate(V3(9, 9, 9)).Mul(RotateY(2)),
	}
	normals := []Vec3{
		V3(0, 0, 1),
		V3(1, 2, 3).Normalize(),
		V3(-0.3, 0.9, 0.1).Normalize(),
	}

	for _, m := range models {
		it, ok := m.InverseTranspose()
		require.True(t, ok)
		back, ok := it.Inverse()
		require.True(t, ok)
		for _, n := range normals {
			got := back.MulDir(it.MulDir(n))
			assert.True(t, got.NearlyEqual(n, 1e-9), "got %v, want %v", got, n)
		}
	}
}

func TestLookAt(t *testing.T) {
	view := LookAt(V3(0, 0, 10), Zero3(), V3(0, 1, 0))
	assert.True(t, view.MulPoint(Zero3()).NearlyEqual(V3(0, 0, -10), 1e-12))
	assert.True(t, view.MulDir(V3(1, 0, 0)).NearlyEqual(V3(1, 0, 0), 1e-12))
}

func TestFrustumMapsNearPlane(t *testing.T) {
	p := Frustum(-1, 1, -0.5, 0.5, 1, 100)

	centre := p.MulVec4(V4(0, 0, -1, 1)).PerspectiveDivide()
	assert.True(t, centre.NearlyEqual(V3(0, 0, -1), 1e-12), "centre = %v", centre)

	corner := p.MulVec4(V4(1, 0.5, -1, 1)).PerspectiveDivide()
	assert.True(t, corner.NearlyEqual(V3(1, 1, -1), 1e-12), "corner = %v", corner)

	far := p.MulVec4(V4(0, 0, -100, 1)).PerspectiveDivide()
	assert.InDelta(t, 1, far.Z, 1e-9)
}

func TestPerspectiveIsSymmetricFrustum(t *testing.T) {
	p := Perspective(math.Pi/2, 2, 1, 10)
	f := Frustum(-2, 2, -1, 1, 1, 10)
	assert.True(t, p.NearlyEqual(f, 1e-12))
}
