package render

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/whitted/pkg/math3d"
	"github.com/taigrr/whitted/pkg/trace"
)

// Tracer shades the primary ray of one pixel. *trace.Tracer implements it.
type Tracer interface {
	Trace(x, y int) math3d.Vec3
}

// Renderer fills a framebuffer one scanline per task.
type Renderer struct {
	tracer  Tracer
	workers int

	// OnRow, when set, is called after each finished row with the number of
	// rows done so far. It may be called from several goroutines.
	OnRow func(done, total int)
}

// NewRenderer returns a renderer running at most workers rows at once.
// workers <= 0 means runtime.NumCPU().
func NewRenderer(t Tracer, workers int) *Renderer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Renderer{tracer: t, workers: workers}
}

// Workers returns the concurrency limit.
func (r *Renderer) Workers() int {
	return r.workers
}

// Render traces every pixel of a width x height image. Cancelling ctx
// stops scheduling new rows and returns the context error.
func (r *Renderer) Render(ctx context.Context, width, height int) (*Framebuffer, error) {
	fb := NewFramebuffer(width, height)
	if err := r.RenderInto(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// RenderInto traces into an existing framebuffer. Each row is written by
// exactly one goroutine.
func (r *Renderer) RenderInto(ctx context.Context, fb *Framebuffer) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var done atomic.Int64
	for y := range fb.Height {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for x := range fb.Width {
				fb.SetColor(x, y, r.tracer.Trace(x, y))
			}
			if r.OnRow != nil {
				r.OnRow(int(done.Add(1)), fb.Height)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	attrs := []any{
		"width", fb.Width,
		"height", fb.Height,
		"workers", r.workers,
		"elapsed", time.Since(start).Round(time.Millisecond),
	}
	if t, ok := r.tracer.(*trace.Tracer); ok {
		st := t.Stats()
		attrs = append(attrs,
			"primary_rays", st.PrimaryRays,
			"shadow_rays", st.ShadowRays,
			"reflection_rays", st.ReflectionRays,
			"deepest_bounce", st.DeepestBounce)
	}
	slog.Info("render complete", attrs...)
	return nil
}
