package math3d

import "math"

// SingularThreshold is the absolute determinant below which a matrix is
// treated as non-invertible.
const SingularThreshold = 1e-10

// Mat4 is a 4x4 matrix stored row-major and applied to column vectors
// (M·p), so the translation lives in the last column.
//
// For a transform matrix:
// | Xx Yx Zx Tx |   X,Y,Z = basis vectors (rotation/scale)
// | Xy Yy Zy Ty |   T = translation
// | Xz Yz Zz Tz |
// | 0  0  0  1  |
type Mat4 [4][4]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		{1, 0, 0, v.X},
		{0, 1, 0, v.Y},
		{0, 0, 1, v.Z},
		{0, 0, 0, 1},
	}
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		{v.X, 0, 0, 0},
		{0, v.Y, 0, 0},
		{0, 0, v.Z, 0},
		{0, 0, 0, 1},
	}
}

// RotateX creates a rotation of angle radians about the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		{1, 0, 0, 0},
		{0, c, -s, 0},
		{0, s, c, 0},
		{0, 0, 0, 1},
	}
}

// RotateY creates a rotation of angle radians about the Y axis.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		{c, 0, s, 0},
		{0, 1, 0, 0},
		{-s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

// RotateZ creates a rotation of angle radians about the Z axis.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		{c, -s, 0, 0},
		{s, c, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// LookAt creates a right-handed view matrix looking from eye towards
// center. The camera looks down its local -Z axis.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize() // Forward
	s := f.Cross(up).Normalize()     // Right
	u := s.Cross(f)                  // Up (recomputed)

	return Mat4{
		{s.X, s.Y, s.Z, -s.Dot(eye)},
		{u.X, u.Y, u.Z, -u.Dot(eye)},
		{-f.X, -f.Y, -f.Z, f.Dot(eye)},
		{0, 0, 0, 1},
	}
}

// Frustum creates an off-center perspective projection for the near-plane
// window [left, right] x [bottom, top].
func Frustum(left, right, bottom, top, near, far float64) Mat4 {
	rl := right - left
	tb := top - bottom
	fn := far - near

	return Mat4{
		{2 * near / rl, 0, (right + left) / rl, 0},
		{0, 2 * near / tb, (top + bottom) / tb, 0},
		{0, 0, -(far + near) / fn, -2 * far * near / fn},
		{0, 0, -1, 0},
	}
}

// Perspective creates a symmetric perspective projection.
// fovy is the vertical field of view in radians, aspect is width/height.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	top := near * math.Tan(fovy/2)
	right := top * aspect
	return Frustum(-right, right, -top, top, near, far)
}

// Mul returns the matrix product a·b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for i := range 4 {
		for j := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[i][k] * b[k][j]
			}
			m[i][j] = sum
		}
	}
	return m
}

// Add returns the element-wise sum.
//
//nolint:st1016 // a+b naming convention is clearer for matrix addition
func (a Mat4) Add(b Mat4) Mat4 {
	var m Mat4
	for i := range 4 {
		for j := range 4 {
			m[i][j] = a[i][j] + b[i][j]
		}
	}
	return m
}

// Sub returns the element-wise difference.
//
//nolint:st1016 // a-b naming convention is clearer for matrix subtraction
func (a Mat4) Sub(b Mat4) Mat4 {
	var m Mat4
	for i := range 4 {
		for j := range 4 {
			m[i][j] = a[i][j] - b[i][j]
		}
	}
	return m
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for i := range 4 {
		for j := range 4 {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// MulPoint transforms p as a point. W is implicitly 1 and no perspective
// divide is performed.
func (m Mat4) MulPoint(p Vec3) Vec3 {
	return Vec3{
		m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// MulDir transforms d as a direction (w=0, no translation).
func (m Mat4) MulDir(d Vec3) Vec3 {
	return Vec3{
		m[0][0]*d.X + m[0][1]*d.Y + m[0][2]*d.Z,
		m[1][0]*d.X + m[1][1]*d.Y + m[1][2]*d.Z,
		m[2][0]*d.X + m[2][1]*d.Y + m[2][2]*d.Z,
	}
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z + m[0][3]*v.W,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z + m[1][3]*v.W,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z + m[2][3]*v.W,
		m[3][0]*v.X + m[3][1]*v.Y + m[3][2]*v.Z + m[3][3]*v.W,
	}
}

// minor returns the 3x3 matrix left after deleting row and col.
func (m Mat4) minor(row, col int) [3][3]float64 {
	var sub [3][3]float64
	si := 0
	for i := range 4 {
		if i == row {
			continue
		}
		sj := 0
		for j := range 4 {
			if j == col {
				continue
			}
			sub[si][sj] = m[i][j]
			sj++
		}
		si++
	}
	return sub
}

func det3(a [3][3]float64) float64 {
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}

// cofactor returns (-1)^(row+col) times the minor determinant.
func (m Mat4) cofactor(row, col int) float64 {
	c := det3(m.minor(row, col))
	if (row+col)%2 != 0 {
		return -c
	}
	return c
}

// Determinant expands along the first row using 3x3 minors.
func (m Mat4) Determinant() float64 {
	var det float64
	for j := range 4 {
		det += m[0][j] * m.cofactor(0, j)
	}
	return det
}

// Adjoint returns the adjugate: the transposed cofactor matrix.
func (m Mat4) Adjoint() Mat4 {
	var adj Mat4
	for i := range 4 {
		for j := range 4 {
			adj[j][i] = m.cofactor(i, j)
		}
	}
	return adj
}

// Inverse returns the inverse of m. ok is false, and the zero matrix is
// returned, when |det| < SingularThreshold.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	det := m.Determinant()
	if math.Abs(det) < SingularThreshold {
		return Mat4{}, false
	}
	adj := m.Adjoint()
	for i := range 4 {
		for j := range 4 {
			inv[i][j] = adj[i][j] / det
		}
	}
	return inv, true
}

// InverseTranspose returns the matrix used to transform surface normals
// under m. The upper 3x3 is the transpose of the inverse's upper 3x3, the
// inverse's translation row and column are copied through and [3][3] is
// pinned to 1. ok is false when m is singular; the result must not be used
// in that case.
func (m Mat4) InverseTranspose() (Mat4, bool) {
	inv, ok := m.Inverse()
	if !ok {
		return Mat4{}, false
	}
	var r Mat4
	for i := range 3 {
		for j := range 3 {
			r[i][j] = inv[j][i]
		}
	}
	for i := range 4 {
		r[3][i] = inv[3][i]
		r[i][3] = inv[i][3]
	}
	r[3][3] = 1
	return r, true
}

// Get returns the element at (row, col).
func (m Mat4) Get(row, col int) float64 {
	return m[row][col]
}

// Set sets the element at (row, col).
func (m *Mat4) Set(row, col int, val float64) {
	m[row][col] = val
}

// NearlyEqual reports whether every element differs by at most tol.
func (m Mat4) NearlyEqual(o Mat4, tol float64) bool {
	for i := range 4 {
		for j := range 4 {
			if !NearlyEqual(m[i][j], o[i][j], tol) {
				return false
			}
		}
	}
	return true
}
