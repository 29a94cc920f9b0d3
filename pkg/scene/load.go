package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/models"
)

// ErrUnsupportedFormat is returned for scene files that are not JSON, YAML
// or TOML.
var ErrUnsupportedFormat = errors.New("unsupported scene format")

// Format is a scene file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// File is the on-disk scene description.
type File struct {
	Camera   CameraSpec    `json:"camera" yaml:"camera" toml:"camera"`
	Meshes   []MeshSpec    `json:"meshes" yaml:"meshes" toml:"meshes"`
	Textures []TextureSpec `json:"textures" yaml:"textures" toml:"textures"`
	Shapes   []ShapeSpec   `json:"shapes" yaml:"shapes" toml:"shapes"`
	Lights   []LightSpec   `json:"lights" yaml:"lights" toml:"lights"`
}

// CameraSpec mirrors Camera. Resolution is [width, height].
type CameraSpec struct {
	From       []float64 `json:"from" yaml:"from" toml:"from"`
	To         []float64 `json:"to" yaml:"to" toml:"to"`
	Up         []float64 `json:"up,omitempty" yaml:"up,omitempty" toml:"up,omitempty"`
	Near       float64   `json:"near,omitempty" yaml:"near,omitempty" toml:"near,omitempty"`
	Far        float64   `json:"far,omitempty" yaml:"far,omitempty" toml:"far,omitempty"`
	Left       float64   `json:"left,omitempty" yaml:"left,omitempty" toml:"left,omitempty"`
	Right      float64   `json:"right,omitempty" yaml:"right,omitempty" toml:"right,omitempty"`
	Top        float64   `json:"top,omitempty" yaml:"top,omitempty" toml:"top,omitempty"`
	Bottom     float64   `json:"bottom,omitempty" yaml:"bottom,omitempty" toml:"bottom,omitempty"`
	FOV        float64   `json:"fov,omitempty" yaml:"fov,omitempty" toml:"fov,omitempty"`
	Resolution []int     `json:"resolution" yaml:"resolution" toml:"resolution"`
}

// MeshSpec names a mesh and where its triangles come from: an asset file,
// a built-in primitive, or inline triangles given as three positions each.
type MeshSpec struct {
	ID        string        `json:"id" yaml:"id" toml:"id"`
	Path      string        `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Primitive string        `json:"primitive,omitempty" yaml:"primitive,omitempty" toml:"primitive,omitempty"`
	Triangles [][][]float64 `json:"triangles,omitempty" yaml:"triangles,omitempty" toml:"triangles,omitempty"`
}

// TextureSpec names an image file.
type TextureSpec struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Path string `json:"path" yaml:"path" toml:"path"`
}

// MaterialSpec mirrors Material. Omitted coefficients take the
// DefaultMaterial values.
type MaterialSpec struct {
	Color              []float64 `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	Ka                 *float64  `json:"ka,omitempty" yaml:"ka,omitempty" toml:"ka,omitempty"`
	Kd                 *float64  `json:"kd,omitempty" yaml:"kd,omitempty" toml:"kd,omitempty"`
	Ks                 *float64  `json:"ks,omitempty" yaml:"ks,omitempty" toml:"ks,omitempty"`
	Kt                 *float64  `json:"kt,omitempty" yaml:"kt,omitempty" toml:"kt,omitempty"`
	SpecularExponent   *float64  `json:"specular_exponent,omitempty" yaml:"specular_exponent,omitempty" toml:"specular_exponent,omitempty"`
	Texture            string    `json:"texture,omitempty" yaml:"texture,omitempty" toml:"texture,omitempty"`
	Reflective         bool      `json:"reflective,omitempty" yaml:"reflective,omitempty" toml:"reflective,omitempty"`
	ReflectionStrength float64   `json:"reflection_strength,omitempty" yaml:"reflection_strength,omitempty" toml:"reflection_strength,omitempty"`
}

// TransformSpec mirrors Transformation. Scale defaults to (1, 1, 1).
type TransformSpec struct {
	Scale       []float64 `json:"scale,omitempty" yaml:"scale,omitempty" toml:"scale,omitempty"`
	Rotation    []float64 `json:"rotation,omitempty" yaml:"rotation,omitempty" toml:"rotation,omitempty"`
	Translation []float64 `json:"translation,omitempty" yaml:"translation,omitempty" toml:"translation,omitempty"`
}

// ShapeSpec mirrors Shape.
type ShapeSpec struct {
	ID        string        `json:"id" yaml:"id" toml:"id"`
	Geometry  string        `json:"geometry" yaml:"geometry" toml:"geometry"`
	Notes     string        `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
	Material  MaterialSpec  `json:"material" yaml:"material" toml:"material"`
	Transform TransformSpec `json:"transform" yaml:"transform" toml:"transform"`
}

// LightSpec describes one light. The first "ambient" and the first
// "directional" light become Scene.Ambient and Scene.Directional; any other
// light goes to Scene.Lights.
type LightSpec struct {
	Type      string    `json:"type" yaml:"type" toml:"type"`
	Color     []float64 `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	Intensity float64   `json:"intensity" yaml:"intensity" toml:"intensity"`
	Direction []float64 `json:"direction,omitempty" yaml:"direction,omitempty" toml:"direction,omitempty"`
	Position  []float64 `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty"`
}

// Load reads a scene file, loads every referenced asset relative to the
// file's directory and validates the result.
func Load(path string) (*Scene, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(data, format, filepath.Dir(path))
}

// Parse decodes scene data. Relative asset paths are resolved against
// baseDir.
func Parse(data []byte, format Format, baseDir string) (*Scene, error) {
	f, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	s, err := f.Build(baseDir)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Decode unmarshals scene data without loading assets.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s scene: %w", format, err)
	}
	return &f, nil
}

// Build converts the file description into a Scene, loading mesh and
// texture assets.
func (f *File) Build(baseDir string) (*Scene, error) {
	s := New()

	cam, err := f.Camera.camera()
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	s.Camera = cam

	for _, ms := range f.Meshes {
		m, err := ms.load(baseDir)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", ms.ID, err)
		}
		s.AddMesh(ms.ID, m)
	}

	for _, ts := range f.Textures {
		p, err := resolve(baseDir, ts.Path)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", ts.ID, err)
		}
		tex, err := models.LoadTexture(p)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", ts.ID, err)
		}
		s.AddTexture(ts.ID, tex)
	}

	for _, ss := range f.Shapes {
		sh, err := ss.shape()
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", ss.ID, err)
		}
		s.AddShape(sh)
	}

	var haveAmbient, haveDirectional bool
	for i, ls := range f.Lights {
		l, err := ls.light()
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		switch {
		case l.Type == LightAmbient && !haveAmbient:
			s.Ambient, haveAmbient = l, true
		case l.Type == LightAmbient:
			return nil, fmt.Errorf("light %d: only one ambient light is allowed", i)
		case l.Type == LightDirectional && !haveDirectional:
			s.Directional, haveDirectional = l, true
		default:
			s.Lights = append(s.Lights, l)
		}
	}

	return s, nil
}

func (c CameraSpec) camera() (Camera, error) {
	cam := DefaultCamera()
	var err error
	if cam.From, err = vec3(c.From, cam.From); err != nil {
		return cam, fmt.Errorf("from: %w", err)
	}
	if cam.To, err = vec3(c.To, cam.To); err != nil {
		return cam, fmt.Errorf("to: %w", err)
	}
	if cam.Up, err = vec3(c.Up, cam.Up); err != nil {
		return cam, fmt.Errorf("up: %w", err)
	}
	if c.Near > 0 {
		cam.Near = c.Near
	}
	if c.Far > 0 {
		cam.Far = c.Far
	}
	if c.FOV > 0 {
		cam.FOV = c.FOV
	}
	cam.Left, cam.Right, cam.Top, cam.Bottom = c.Left, c.Right, c.Top, c.Bottom

	switch len(c.Resolution) {
	case 0:
	case 2:
		cam.XRes, cam.YRes = c.Resolution[0], c.Resolution[1]
	default:
		return cam, fmt.Errorf("resolution: want [width, height], got %v", c.Resolution)
	}
	return cam, nil
}

func (ms MeshSpec) load(baseDir string) (*models.Mesh, error) {
	switch {
	case ms.Path != "":
		p, err := resolve(baseDir, ms.Path)
		if err != nil {
			return nil, err
		}
		return models.Load(p)
	case ms.Primitive != "":
		m, ok := models.NewPrimitive(ms.Primitive)
		if !ok {
			return nil, fmt.Errorf("unknown primitive %q", ms.Primitive)
		}
		return m, nil
	case len(ms.Triangles) > 0:
		m := models.NewMesh(ms.ID)
		for i, corners := range ms.Triangles {
			if len(corners) != 3 {
				return nil, fmt.Errorf("triangle %d: want 3 vertices, got %d", i, len(corners))
			}
			var p [3]math3d.Vec3
			for k, c := range corners {
				v, err := vec3(c, math3d.Vec3{})
				if err != nil || c == nil {
					return nil, fmt.Errorf("triangle %d vertex %d: want [x, y, z], got %v", i, k, c)
				}
				p[k] = v
			}
			m.AddTriangle(models.Tri(p[0], p[1], p[2]))
		}
		m.CalculateBounds()
		return m, nil
	default:
		return nil, errors.New("needs a path, a primitive or triangles")
	}
}

func (ss ShapeSpec) shape() (Shape, error) {
	sh := Shape{
		ID:         ss.ID,
		GeometryID: ss.Geometry,
		Notes:      ss.Notes,
		Material:   DefaultMaterial(),
		Transform:  Identity(),
	}

	ms := ss.Material
	var err error
	if sh.Material.SurfaceColor, err = vec3(ms.Color, sh.Material.SurfaceColor); err != nil {
		return sh, fmt.Errorf("material color: %w", err)
	}
	setIf(&sh.Material.Ka, ms.Ka)
	setIf(&sh.Material.Kd, ms.Kd)
	setIf(&sh.Material.Ks, ms.Ks)
	setIf(&sh.Material.Kt, ms.Kt)
	setIf(&sh.Material.SpecularExponent, ms.SpecularExponent)
	sh.Material.TextureID = ms.Texture
	sh.Material.Reflective = ms.Reflective
	sh.Material.ReflectionStrength = ms.ReflectionStrength
	if ms.Reflective && ms.ReflectionStrength == 0 {
		sh.Material.ReflectionStrength = 0.5
	}

	ts := ss.Transform
	if sh.Transform.Scale, err = vec3(ts.Scale, sh.Transform.Scale); err != nil {
		return sh, fmt.Errorf("scale: %w", err)
	}
	if sh.Transform.Rotation, err = vec3(ts.Rotation, sh.Transform.Rotation); err != nil {
		return sh, fmt.Errorf("rotation: %w", err)
	}
	if sh.Transform.Translation, err = vec3(ts.Translation, sh.Transform.Translation); err != nil {
		return sh, fmt.Errorf("translation: %w", err)
	}
	return sh, nil
}

func (ls LightSpec) light() (Light, error) {
	l := Light{
		Type:      LightType(strings.ToLower(ls.Type)),
		Intensity: ls.Intensity,
	}
	if l.Type == "" {
		l.Type = LightDirectional
	}
	switch l.Type {
	case LightAmbient, LightDirectional, LightPoint:
	default:
		return l, fmt.Errorf("unknown light type %q", ls.Type)
	}

	var err error
	if l.Color, err = vec3(ls.Color, math3d.One3()); err != nil {
		return l, fmt.Errorf("color: %w", err)
	}
	if l.Direction, err = vec3(ls.Direction, math3d.V3(0, 0, -1)); err != nil {
		return l, fmt.Errorf("direction: %w", err)
	}
	if l.Position, err = vec3(ls.Position, math3d.Vec3{}); err != nil {
		return l, fmt.Errorf("position: %w", err)
	}
	if l.Type == LightDirectional && l.Direction.LenSq() == 0 {
		return l, errors.New("direction must be non-zero")
	}
	l.Direction = l.Direction.Normalize()
	return l, nil
}

// vec3 converts an optional [x, y, z] list, returning def when v is empty.
func vec3(v []float64, def math3d.Vec3) (math3d.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return math3d.V3(v[0], v[1], v[2]), nil
	default:
		return def, fmt.Errorf("want [x, y, z], got %v", v)
	}
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// resolve expands ~ and makes p relative to baseDir.
func resolve(baseDir, p string) (string, error) {
	p, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	return p, nil
}
