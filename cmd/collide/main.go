// Package main is the collide command: it checks scene files for collisions and inspects the dispatch matrix.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/collide/logging"
)

const (
	// Flags.
	flagScene    = "scene"
	flagCell     = "cell"
	flagSparse   = "sparse"
	flagNoOctree = "no-octree"
	flagDebug    = "debug"
	flagLogLevel = "log-level"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger

	sceneFlag := &cli.StringFlag{
		Name:     flagScene,
		Aliases:  []string{"s"},
		Usage:    "read the scene from `FILE`",
		Required: true,
	}
	sparseFlag := &cli.BoolFlag{
		Name:  flagSparse,
		Usage: "hash into a sparse table instead of one bucket per grid cell",
	}
	noOctreeFlag := &cli.BoolFlag{
		Name:  flagNoOctree,
		Usage: "leave the octree routines out of the dispatch matrix",
	}

	return &cli.App{
		Name:  "collide",
		Usage: "test geometries for collision",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log at `LEVEL` (debug, info, warn or error)",
			},
		},
		Before: func(c *cli.Context) error {
			switch {
			case c.Bool(flagDebug):
				logger = logging.NewDebugLogger("collide")
			case c.IsSet(flagLogLevel):
				level, err := logging.LevelFromString(c.String(flagLogLevel))
				if err != nil {
					return err
				}
				logger = logging.NewLoggerAtLevel("collide", level)
			default:
				logger = logging.NewBlankLogger("collide")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "report every colliding pair of a scene",
				Flags: []cli.Flag{sceneFlag, sparseFlag, noOctreeFlag},
				Action: func(c *cli.Context) error {
					return checkAction(c, logger)
				},
			},
			{
				Name:  "objects",
				Usage: "list the objects of a scene with their world bounds",
				Flags: []cli.Flag{sceneFlag},
				Action: func(c *cli.Context) error {
					return objectsAction(c, logger)
				},
			},
			{
				Name:  "hash",
				Usage: "list the broad phase candidate pairs of a scene",
				Flags: []cli.Flag{
					sceneFlag,
					sparseFlag,
					&cli.Float64Flag{
						Name:  flagCell,
						Usage: "override the grid cell size",
					},
				},
				Action: func(c *cli.Context) error {
					return hashAction(c, logger)
				},
			},
			{
				Name:  "matrix",
				Usage: "list the geometry pairs the dispatch matrix supports",
				Flags: []cli.Flag{noOctreeFlag},
				Action: func(c *cli.Context) error {
					return matrixAction(c)
				},
			},
		},
	}
}
