package trace

import (
	"math"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/scene"
)

// MixColors linearly interpolates: a·(1−t) + b·t.
func MixColors(a, b math3d.Vec3, t float64) math3d.Vec3 {
	return a.Scale(1 - t).Add(b.Scale(t))
}

// Raycast shades ray. depth is the number of reflections already followed;
// primary rays start at 0. It reports false, with the background color,
// when nothing is hit. hit receives the nearest intersection.
func (t *Tracer) Raycast(ray math3d.Ray, hit *HitInfo, depth int) (math3d.Vec3, bool) {
	if !t.Nearest(ray, hit) {
		return t.cfg.Background, false
	}
	t.stats.reached(depth)

	n := hit.Normal
	if n.Dot(ray.Direction) > 0 {
		n = n.Negate()
	}
	origin := hit.Point.Add(n.Scale(t.cfg.Epsilon))

	m := hit.Material
	surface := m.SurfaceColor
	if hit.Texture != nil {
		surface = surface.Mul(hit.Texture.Sample(hit.UV))
	}

	color := t.ambient(t.scene.Ambient, m, surface)
	view := ray.Direction.Negate()
	color = color.Add(t.direct(t.scene.Directional, hit.Point, origin, n, view, m, surface))
	for _, l := range t.scene.Lights {
		color = color.Add(t.direct(l, hit.Point, origin, n, view, m, surface))
	}

	if m.Reflective && depth < t.cfg.MaxDepth {
		t.stats.reflection.Add(1)
		bounce := math3d.NewRay(origin, ray.Direction.Reflect(n))
		next := NewHitInfo()
		reflected, _ := t.Raycast(bounce, &next, depth+1)
		color = MixColors(color, reflected, m.ReflectionStrength)
	}

	return color, true
}

func (t *Tracer) ambient(l scene.Light, m scene.Material, surface math3d.Vec3) math3d.Vec3 {
	if !l.Enabled() {
		return math3d.Zero3()
	}
	return l.Radiance().Mul(surface).Scale(m.Ka)
}

// direct returns the diffuse and specular contribution of one light, or
// zero when the light faces away or is shadowed.
func (t *Tracer) direct(l scene.Light, p, origin, n, view math3d.Vec3, m scene.Material, surface math3d.Vec3) math3d.Vec3 {
	if !l.Enabled() {
		return math3d.Zero3()
	}

	var toLight math3d.Vec3
	limit := math.Inf(1)
	switch l.Type {
	case scene.LightAmbient:
		return t.ambient(l, m, surface)
	case scene.LightPoint:
		d := l.Position.Sub(p)
		dist := d.Len()
		if dist == 0 {
			return math3d.Zero3()
		}
		toLight = d.Div(dist)
		limit = l.Position.Distance(origin)
	default:
		if l.Direction.LenSq() == 0 {
			return math3d.Zero3()
		}
		toLight = l.Direction.Normalize().Negate()
	}

	ndotl := n.Dot(toLight)
	if ndotl <= 0 {
		return math3d.Zero3()
	}

	t.stats.shadow.Add(1)
	if t.occluded(math3d.NewRay(origin, toLight), limit) {
		return math3d.Zero3()
	}

	radiance := l.Radiance()
	color := radiance.Mul(surface).Scale(m.Kd * ndotl)

	if m.Ks > 0 {
		r := toLight.Negate().Reflect(n)
		if rv := r.Dot(view); rv > 0 {
			color = color.Add(radiance.Scale(m.Ks * math.Pow(rv, m.SpecularExponent)))
		}
	}
	return color
}
