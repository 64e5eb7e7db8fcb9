package main

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/collide/broadphase"
	"go.viam.com/collide/collision"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/scene"
)

func matrixOptions(c *cli.Context) []collision.MatrixOption {
	if c.Bool(flagNoOctree) {
		return []collision.MatrixOption{collision.WithOctree(false)}
	}
	return nil
}

func managerOptions(c *cli.Context) []broadphase.Option {
	var opts []broadphase.Option
	if c.Bool(flagSparse) {
		opts = append(opts, broadphase.WithSparseTable())
	}
	if c.Bool(flagNoOctree) {
		opts = append(opts, broadphase.WithMatrix(collision.NewMatrix(matrixOptions(c)...)))
	}
	return opts
}

func loadScene(c *cli.Context, logger logging.Logger) (*scene.Scene, error) {
	s, err := scene.Load(c.String(flagScene), logger)
	if err != nil {
		return nil, errors.Wrap(err, "error loading scene")
	}
	return s, nil
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", v.X, v.Y, v.Z)
}

func checkAction(c *cli.Context, logger logging.Logger) error {
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	results, err := s.Check(c.Context, logger, managerOptions(c)...)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "no collisions")
		return nil
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "First", "Second", "Contacts", "Max Depth", "Position", "Normal"})
	depths := make([]float64, 0, len(results))
	for i, r := range results {
		contacts := r.Result.Contacts()
		deepest := contacts[0]
		for _, ct := range contacts[1:] {
			if ct.PenetrationDepth > deepest.PenetrationDepth {
				deepest = ct
			}
		}
		depths = append(depths, deepest.PenetrationDepth)
		t.AppendRow(table.Row{
			i + 1,
			s.Name(r.A),
			s.Name(r.B),
			len(contacts),
			fmt.Sprintf("%.4f", deepest.PenetrationDepth),
			formatVector(deepest.Pos),
			formatVector(deepest.Normal),
		})
	}
	fmt.Fprintln(c.App.Writer, t.Render())

	mean, err := stats.Mean(depths)
	if err != nil {
		return err
	}
	worst, err := stats.Max(depths)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d colliding pairs, mean depth %.4f, max depth %.4f\n", len(results), mean, worst)
	return nil
}

func objectsAction(c *cli.Context, logger logging.Logger) error {
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Name", "Type", "Translation", "Min", "Max"})
	for i, o := range s.Objects {
		box := o.AABB()
		t.AppendRow(table.Row{
			i + 1,
			s.Name(o),
			o.Geometry().NodeType(),
			formatVector(o.Pose().Point()),
			formatVector(box.Min),
			formatVector(box.Max),
		})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func hashAction(c *cli.Context, logger logging.Logger) error {
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	limit, cell := s.Grid()
	if c.IsSet(flagCell) {
		cell = c.Float64(flagCell)
	}
	m, err := broadphase.NewSpatialHashManager(limit, cell, logger, managerOptions(c)...)
	if err != nil {
		return err
	}
	if err := m.Register(s.Objects...); err != nil {
		return err
	}

	pairs := m.Candidates()
	fmt.Fprintf(c.App.Writer, "grid %s to %s, cell %g, %d objects, %d candidate pairs\n",
		formatVector(limit.Min), formatVector(limit.Max), cell, m.Size(), len(pairs))
	if len(pairs) == 0 {
		return nil
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "First", "Second", "First Type", "Second Type"})
	for i, p := range pairs {
		t.AppendRow(table.Row{i + 1, s.Name(p.A), s.Name(p.B), p.A.Geometry().NodeType(), p.B.Geometry().NodeType()})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

func matrixAction(c *cli.Context) error {
	m := collision.NewMatrix(matrixOptions(c)...)
	pairs := m.SupportedPairs()
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "First", "Second"})
	for i, p := range pairs {
		t.AppendRow(table.Row{i + 1, p.First, p.Second})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	fmt.Fprintf(c.App.Writer, "%d supported pairs\n", len(pairs))
	return nil
}
