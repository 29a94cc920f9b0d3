package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taigrr/whitted/pkg/scene"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <scene>",
		Short: "Describe a scene without rendering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scene.Load(args[0])
			if err != nil {
				return err
			}
			return describe(cmd.OutOrStdout(), s)
		},
	}
}

func describe(out io.Writer, s *scene.Scene) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	c := s.Camera

	fmt.Fprintf(w, "Camera\t%dx%d from %v to %v\n", c.XRes, c.YRes, c.From, c.To)
	fmt.Fprintf(w, "Triangles\t%d\n\n", s.TriangleCount())

	fmt.Fprintln(w, "MESH\tTRIANGLES\tBOUNDS")
	for _, id := range slices.Sorted(maps.Keys(s.Meshes)) {
		m := s.Meshes[id]
		lo, hi := m.GetBounds()
		fmt.Fprintf(w, "%s\t%d\t%v .. %v\n", id, m.TriangleCount(), lo, hi)
	}

	fmt.Fprintln(w, "\nSHAPE\tMESH\tREFLECTIVE\tTEXTURE")
	for _, sh := range s.Shapes {
		tex := sh.Material.TextureID
		if tex == "" {
			tex = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", sh.ID, sh.GeometryID, sh.Material.Reflective, tex)
	}

	fmt.Fprintln(w, "\nLIGHT\tCOLOR\tINTENSITY")
	lights := append([]scene.Light{s.Ambient, s.Directional}, s.Lights...)
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		fmt.Fprintf(w, "%s\t%v\t%g\n", l.Type, l.Color, l.Intensity)
	}
	return w.Flush()
}
