package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/taigrr/whitted/pkg/config"
	"github.com/taigrr/whitted/pkg/output"
	"github.com/taigrr/whitted/pkg/render"
	"github.com/taigrr/whitted/pkg/scene"
	"github.com/taigrr/whitted/pkg/trace"
)

type renderOptions struct {
	configPath string
	output     string
	maxDepth   int
	epsilon    float64
	background string
	workers    int
	thumbnail  int
	s3Bucket   string
	s3Key      string
	s3Region   string
	watch      bool
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render <scene>",
		Short: "Render a scene to an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := renderScene(cmd.Context(), args[0], cfg); err != nil {
				return err
			}
			if opts.watch {
				return watchScene(cmd.Context(), args[0], func() {
					if err := renderScene(cmd.Context(), args[0], cfg); err != nil {
						slog.Error("render failed", "scene", args[0], "err", err)
					}
				})
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Config file (default "+config.DefaultPath+")")
	f.StringVarP(&opts.output, "output", "o", "", "Output image (.png, .ppm, .jpg)")
	f.IntVar(&opts.maxDepth, "max-depth", trace.DefaultMaxDepth, "Maximum reflection depth")
	f.Float64Var(&opts.epsilon, "epsilon", 1e-5, "Intersection epsilon")
	f.StringVar(&opts.background, "background", "", "Background color as hex")
	f.IntVar(&opts.workers, "workers", 0, "Rows rendered in parallel (0 = one per CPU)")
	f.IntVar(&opts.thumbnail, "thumbnail", 0, "Also write a thumbnail this many pixels wide")
	f.StringVar(&opts.s3Bucket, "s3-bucket", "", "Upload the PNG to this S3 bucket")
	f.StringVar(&opts.s3Key, "s3-key", "", "Object key (default output file name)")
	f.StringVar(&opts.s3Region, "s3-region", "", "S3 region")
	f.BoolVarP(&opts.watch, "watch", "w", false, "Re-render when the scene file changes")
	return cmd
}

// loadConfig reads the config file and applies flags the user set.
func loadConfig(cmd *cobra.Command, opts renderOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if f.Changed("max-depth") {
		cfg.Render.MaxDepth = opts.maxDepth
	}
	if f.Changed("epsilon") {
		cfg.Render.Epsilon = opts.epsilon
	}
	if f.Changed("background") {
		cfg.Render.Background = opts.background
	}
	if f.Changed("workers") {
		cfg.Render.Workers = opts.workers
	}
	if f.Changed("thumbnail") {
		cfg.Output.Thumbnail = opts.thumbnail
	}
	if f.Changed("s3-bucket") {
		cfg.S3.Bucket = opts.s3Bucket
	}
	if f.Changed("s3-key") {
		cfg.S3.Key = opts.s3Key
	}
	if f.Changed("s3-region") {
		cfg.S3.Region = opts.s3Region
	}
	return cfg, cfg.Validate()
}

func renderScene(ctx context.Context, scenePath string, cfg config.Config) error {
	s, err := scene.Load(scenePath)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	tc, err := cfg.Trace()
	if err != nil {
		return err
	}
	tr, err := trace.New(s, tc)
	if err != nil {
		return err
	}

	slog.Debug("rendering", "scene", scenePath,
		"width", s.Camera.XRes, "height", s.Camera.YRes, "triangles", s.TriangleCount())
	fb, err := render.NewRenderer(tr, cfg.Render.Workers).Render(ctx, s.Camera.XRes, s.Camera.YRes)
	if err != nil {
		return err
	}

	if err := output.Save(cfg.Output.Path, fb); err != nil {
		return err
	}
	slog.Info("wrote image", "path", cfg.Output.Path)

	if n := cfg.Output.Thumbnail; n > 0 {
		thumbPath := output.ThumbnailPath(cfg.Output.Path)
		if err := output.Save(thumbPath, output.Thumbnail(fb, n)); err != nil {
			return err
		}
		slog.Info("wrote thumbnail", "path", thumbPath, "size", n)
	}

	if cfg.S3.Bucket != "" {
		up, err := output.NewS3Uploader(output.S3Config{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			ACL:       cfg.S3.ACL,
		})
		if err != nil {
			return err
		}
		key := cfg.S3.Key
		if key == "" {
			key = filepath.Base(cfg.Output.Path)
		}
		if err := up.Upload(ctx, cfg.S3.Bucket, key, fb); err != nil {
			return err
		}
	}
	return nil
}

// watchScene calls fn after the scene file is written, until ctx is done.
// The directory is watched because editors often replace files on save.
func watchScene(ctx context.Context, scenePath string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(scenePath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", scenePath, err)
	}
	slog.Info("watching for changes", "scene", scenePath)

	const settle = 200 * time.Millisecond
	debounce := time.NewTimer(settle)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(settle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		case <-debounce.C:
			fn()
		}
	}
}
