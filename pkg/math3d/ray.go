package math3d

// Ray is a half line origin + t*direction. Direction is expected to be
// normalized; NewRay normalizes it.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay creates a ray with a normalized direction.
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point origin + t*direction.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}
