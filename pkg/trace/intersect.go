package trace

import (
	"math"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/models"
	"github.com/taigrr/whitted/pkg/scene"
)

// HitInfo describes the closest intersection found so far along a ray.
// Distance acts as the upper bound for further tests, so a fresh HitInfo
// should come from NewHitInfo.
type HitInfo struct {
	Point    math3d.Vec3
	Normal   math3d.Vec3 // unit, interpolated from vertex normals
	Distance float64
	U, V     float64     // barycentric weights of vertices 1 and 2
	UV       math3d.Vec2 // interpolated texture coordinate

	ShapeID  string
	Material scene.Material
	Texture  *models.Texture
}

// NewHitInfo returns a HitInfo that accepts any hit in front of the ray.
func NewHitInfo() HitInfo {
	return HitInfo{Distance: math.Inf(1)}
}

// worldTriangle is a triangle with positions transformed by a model matrix
// and normals by its inverse-transpose.
type worldTriangle struct {
	p  [3]math3d.Vec3
	n  [3]math3d.Vec3
	uv [3]math3d.Vec2
	e1 math3d.Vec3
	e2 math3d.Vec3
	gn math3d.Vec3 // geometric normal, zero if degenerate
}

func toWorld(tri models.Triangle, model, normalMat math3d.Mat4) worldTriangle {
	var w worldTriangle
	for i, v := range tri.V {
		w.p[i] = model.MulPoint(v.Position)
		w.n[i] = normalMat.MulDir(v.Normal)
		w.uv[i] = v.UV
	}
	w.e1 = w.p[1].Sub(w.p[0])
	w.e2 = w.p[2].Sub(w.p[0])
	w.gn = w.e1.Cross(w.e2).Normalize()
	return w
}

// RaycastTriangle tests ray against tri placed by model. Vertex normals go
// through the inverse-transpose of model; if that matrix is singular the
// triangle is treated as absent. On a hit closer than hit.Distance the
// geometric fields of hit are updated and true is returned.
func RaycastTriangle(ray math3d.Ray, tri models.Triangle, model math3d.Mat4, hit *HitInfo) bool {
	normalMat, ok := model.InverseTranspose()
	if !ok {
		return false
	}
	return intersect(ray, toWorld(tri, model, normalMat), math3d.Epsilon, hit)
}

// intersect is Möller–Trumbore against a world-space triangle.
func intersect(ray math3d.Ray, w worldTriangle, eps float64, hit *HitInfo) bool {
	t, u, v, ok := solve(ray, w, eps, hit.Distance)
	if !ok {
		return false
	}

	weight := 1 - u - v
	n := w.n[0].Scale(weight).Add(w.n[1].Scale(u)).Add(w.n[2].Scale(v))
	if n.LenSq() == 0 {
		n = w.gn
	}

	hit.Point = ray.At(t)
	hit.Normal = n.Normalize()
	hit.Distance = t
	hit.U, hit.V = u, v
	hit.UV = w.uv[0].Scale(weight).Add(w.uv[1].Scale(u)).Add(w.uv[2].Scale(v))
	return true
}

// solve returns the ray parameter and barycentric coordinates of a hit
// with 0 < t < limit.
func solve(ray math3d.Ray, w worldTriangle, eps, limit float64) (t, u, v float64, ok bool) {
	pvec := ray.Direction.Cross(w.e2)
	det := w.e1.Dot(pvec)
	if math.Abs(det) < eps {
		return 0, 0, 0, false
	}
	inv := 1 / det

	tvec := ray.Origin.Sub(w.p[0])
	u = tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(w.e1)
	v = ray.Direction.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = w.e2.Dot(qvec) * inv
	if t <= 0 || t >= limit {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// Nearest finds the closest intersection of ray with any shape. hit is
// written only when something is hit.
func (t *Tracer) Nearest(ray math3d.Ray, hit *HitInfo) bool {
	best := NewHitInfo()
	var found *instance
	for i := range t.instances {
		inst := &t.instances[i]
		for _, w := range inst.triangles {
			if intersect(ray, w, t.cfg.Epsilon, &best) {
				found = inst
			}
		}
	}
	if found == nil {
		return false
	}

	best.ShapeID = found.id
	best.Material = found.material
	best.Texture = found.texture
	*hit = best
	return true
}

// occluded reports whether anything lies along ray closer than limit.
func (t *Tracer) occluded(ray math3d.Ray, limit float64) bool {
	for i := range t.instances {
		for _, w := range t.instances[i].triangles {
			if _, _, _, ok := solve(ray, w, t.cfg.Epsilon, limit); ok {
				return true
			}
		}
	}
	return false
}
