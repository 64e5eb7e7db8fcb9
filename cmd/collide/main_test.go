package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"go.viam.com/test"

	"go.viam.com/collide/collision"
)

const tableScene = "../../scene/data/table.json5"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"collide"}, args...))
	return out.String(), err
}

func TestLogLevelFlag(t *testing.T) {
	_, err := runApp(t, "--log-level", "warn", "matrix")
	test.That(t, err, test.ShouldBeNil)

	_, err = runApp(t, "--log-level", "loud", "matrix")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")
}

func TestCheckCommand(t *testing.T) {
	out, err := runApp(t, "check", "--scene", tableScene)
	test.That(t, err, test.ShouldBeNil)
	for _, name := range []string{"floor", "table", "part", "ball", "map"} {
		test.That(t, out, test.ShouldContainSubstring, name)
	}
	test.That(t, out, test.ShouldContainSubstring, "MAX DEPTH")
	test.That(t, out, test.ShouldContainSubstring, "colliding pairs, mean depth")

	t.Run("sparse table", func(t *testing.T) {
		sparse, err := runApp(t, "check", "--scene", tableScene, "--sparse")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sparse, test.ShouldEqual, out)
	})

	t.Run("without octree routines", func(t *testing.T) {
		_, err := runApp(t, "check", "--scene", tableScene, "--no-octree")
		var unsupported *collision.UnsupportedPairError
		test.That(t, errors.As(err, &unsupported), test.ShouldBeTrue)
	})

	t.Run("missing scene flag", func(t *testing.T) {
		_, err := runApp(t, "check")
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("missing scene file", func(t *testing.T) {
		_, err := runApp(t, "check", "--scene", "nope.json5")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "error loading scene")
	})
}

func TestObjectsCommand(t *testing.T) {
	out, err := runApp(t, "objects", "--scene", tableScene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "GEOM_HALFSPACE")
	test.That(t, out, test.ShouldContainSubstring, "BV_OBBRSS")
	test.That(t, out, test.ShouldContainSubstring, "GEOM_OCTREE")
}

func TestHashCommand(t *testing.T) {
	out, err := runApp(t, "hash", "--scene", tableScene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "cell 1,")
	test.That(t, out, test.ShouldContainSubstring, "5 objects")

	out, err = runApp(t, "hash", "--scene", tableScene, "--cell", "0.5", "--sparse")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "cell 0.5,")

	_, err = runApp(t, "hash", "--scene", tableScene, "--cell", "-1")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMatrixCommand(t *testing.T) {
	out, err := runApp(t, "matrix")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, fmt.Sprintf("%d supported pairs", len(collision.NewMatrix().SupportedPairs())))
	test.That(t, out, test.ShouldContainSubstring, "GEOM_OCTREE")

	out, err = runApp(t, "matrix", "--no-octree")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldNotContainSubstring, "GEOM_OCTREE")
	test.That(t, out, test.ShouldContainSubstring, "BV_KDOP24")
}
