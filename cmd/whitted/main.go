// whitted renders triangle-mesh scenes with recursive ray tracing.
//
// Scenes are JSON, YAML or TOML files naming meshes (OBJ, STL, PLY, glTF or
// built-in primitives), textures, shapes, lights and a camera.
//
//	whitted render scene.yaml -o out.png
//	whitted preview scene.yaml
//	whitted info scene.yaml
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "whitted",
		Short: "Recursive ray tracer for triangle-mesh scenes",
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(verbose)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRenderCmd(), newPreviewCmd(), newInfoCmd())
	return root
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
