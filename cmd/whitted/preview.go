package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/taigrr/whitted/pkg/config"
	"github.com/taigrr/whitted/pkg/render"
	"github.com/taigrr/whitted/pkg/scene"
	"github.com/taigrr/whitted/pkg/trace"
)

func newPreviewCmd() *cobra.Command {
	var (
		configPath string
		fps        int
		maxDepth   int
	)
	cmd := &cobra.Command{
		Use:   "preview <scene>",
		Short: "Render a scene in the terminal and orbit the camera",
		Long: `Render a scene at terminal resolution using half-block cells.

Controls:
  A/D, left/right  Orbit the camera
  R                Reset the orbit
  Esc, Q           Quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-depth") {
				cfg.Render.MaxDepth = maxDepth
			}
			return runPreview(cmd.Context(), args[0], cfg, fps)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Config file")
	cmd.Flags().IntVar(&fps, "fps", 30, "Target frames per second")
	cmd.Flags().IntVar(&maxDepth, "max-depth", trace.DefaultMaxDepth, "Maximum reflection depth")
	return cmd
}

// orbit eases the camera yaw toward a target with a critically damped
// spring.
type orbit struct {
	mu       sync.Mutex
	target   float64
	position float64
	velocity float64
	spring   harmonica.Spring
}

func newOrbit(fps int) *orbit {
	return &orbit{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (o *orbit) nudge(delta float64) {
	o.mu.Lock()
	o.target += delta
	o.mu.Unlock()
}

func (o *orbit) reset() {
	o.mu.Lock()
	o.target = 0
	o.mu.Unlock()
}

// step advances the spring one frame and returns how far the yaw moved.
func (o *orbit) step() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.position
	o.position, o.velocity = o.spring.Update(o.position, o.velocity, o.target)
	return o.position - prev
}

// viewport tracks the terminal size reported by resize events.
type viewport struct {
	mu            sync.Mutex
	width, height int
	changed       bool
}

func (v *viewport) set(w, h int) {
	v.mu.Lock()
	v.width, v.height, v.changed = w, h, true
	v.mu.Unlock()
}

func (v *viewport) take() (w, h int, changed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	w, h, changed = v.width, v.height, v.changed
	v.changed = false
	return w, h, changed
}

func runPreview(ctx context.Context, scenePath string, cfg config.Config, fps int) error {
	if fps <= 0 {
		fps = 30
	}
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

	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	// Log lines would tear the alternate screen.
	prevLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
		slog.SetDefault(prevLogger)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	yaw := newOrbit(fps)
	view := &viewport{}
	view.set(cols, rows)
	const step = math.Pi / 12

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				view.set(ev.Width, ev.Height)
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "q", "ctrl+c"):
					cancel()
					return
				case ev.MatchString("a", "left"):
					yaw.nudge(-step)
				case ev.MatchString("d", "right"):
					yaw.nudge(step)
				case ev.MatchString("r"):
					yaw.reset()
				}
			}
		}
	}()

	renderer := render.NewRenderer(tr, cfg.Render.Workers)
	var fb *render.Framebuffer
	frame := time.NewTicker(time.Second / time.Duration(fps))
	defer frame.Stop()

	dirty := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-frame.C:
		}

		if w, h, changed := view.take(); changed {
			cols, rows = w, h
			term.Erase()
			term.Resize(cols, rows)
			s.Camera.XRes, s.Camera.YRes = render.TerminalSize(cols, rows)
			fb = render.NewFramebuffer(s.Camera.XRes, s.Camera.YRes)
			dirty = true
		}
		if delta := yaw.step(); math.Abs(delta) > 1e-5 {
			s.Camera.Orbit(delta)
			dirty = true
		}
		if !dirty {
			continue
		}
		if err := s.Camera.Update(); err != nil {
			return err
		}
		if err := renderer.RenderInto(ctx, fb); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fb.Draw(term, term.Bounds())
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		dirty = false
	}
}
