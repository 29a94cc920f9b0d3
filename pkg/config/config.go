// Package config loads renderer settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/trace"
)

// DefaultPath is where the CLI looks when no --config flag is given.
const DefaultPath = "~/.config/whitted/config.toml"

// Config is the on-disk settings file.
type Config struct {
	Render RenderConfig `toml:"render"`
	Output OutputConfig `toml:"output"`
	S3     S3Config     `toml:"s3"`
}

// RenderConfig tunes the tracer.
type RenderConfig struct {
	MaxDepth   int     `toml:"max_depth"`
	Epsilon    float64 `toml:"epsilon"`
	Background string  `toml:"background"` // hex, e.g. "#1f1f29"
	Workers    int     `toml:"workers"`    // 0 = one per CPU
}

// OutputConfig says where frames go.
type OutputConfig struct {
	Path      string `toml:"path"`
	Thumbnail int    `toml:"thumbnail"` // longest edge in pixels, 0 = none
}

// S3Config names an optional upload destination.
type S3Config struct {
	Bucket    string `toml:"bucket"`
	Key       string `toml:"key"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	ACL       string `toml:"acl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Render: RenderConfig{
			MaxDepth:   trace.DefaultMaxDepth,
			Epsilon:    math3d.Epsilon,
			Background: Hex(trace.DefaultConfig().Background),
		},
		Output: OutputConfig{
			Path: "render.png",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load reads path over the defaults. A missing file at DefaultPath is not
// an error; any other missing file is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("expand %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if c.Render.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("render.max_depth must be >= 0, got %d", c.Render.MaxDepth))
	}
	if c.Render.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("render.epsilon must be > 0, got %g", c.Render.Epsilon))
	}
	if _, err := ParseColor(c.Render.Background); err != nil {
		errs = append(errs, fmt.Errorf("render.background: %w", err))
	}
	if c.Output.Thumbnail < 0 {
		errs = append(errs, fmt.Errorf("output.thumbnail must be >= 0, got %d", c.Output.Thumbnail))
	}
	return errors.Join(errs...)
}

// Trace converts the render settings into a tracer configuration.
func (c Config) Trace() (trace.Config, error) {
	bg, err := ParseColor(c.Render.Background)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Epsilon:    c.Render.Epsilon,
		MaxDepth:   c.Render.MaxDepth,
		Background: bg,
	}, nil
}

// ParseColor parses a hex color ("#rrggbb" or "#rgb") into linear [0,1]
// channels as stored in the framebuffer.
func ParseColor(hex string) (math3d.Vec3, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return math3d.Vec3{}, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return math3d.V3(c.R, c.G, c.B), nil
}

// Hex formats a [0,1] color as "#rrggbb".
func Hex(c math3d.Vec3) string {
	return colorful.Color{R: c.X, G: c.Y, B: c.Z}.Clamped().Hex()
}
