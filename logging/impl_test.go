package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("cache miss", "path", "a.ply")
	logger.Sublogger("cache").Warnf("skipped %d pairs", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.All()[0].Message, test.ShouldEqual, "cache miss")
	test.That(t, logs.All()[0].ContextMap()["path"], test.ShouldEqual, "a.ply")
	test.That(t, logs.All()[1].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, logs.All()[1].Message, test.ShouldEqual, "skipped 3 pairs")
	test.That(t, logs.FilterMessageSnippet("skipped").Len(), test.ShouldEqual, 1)
}

func TestSublogger(t *testing.T) {
	logger := NewBlankLogger("collide")
	sub := logger.Sublogger("meshloader")
	test.That(t, sub.(*impl).name, test.ShouldEqual, "collide.meshloader")
	test.That(t, sub.GetLevel(), test.ShouldEqual, DEBUG)

	test.That(t, NewLogger("collide").GetLevel(), test.ShouldEqual, INFO)
	test.That(t, NewDebugLogger("collide").GetLevel(), test.ShouldEqual, DEBUG)
	warn := NewLoggerAtLevel("collide", WARN)
	test.That(t, warn.Desugar().Core().Enabled(zapcore.InfoLevel), test.ShouldBeFalse)
	test.That(t, warn.Desugar().Core().Enabled(zapcore.WarnLevel), test.ShouldBeTrue)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
		test.That(t, level.AsZap().String(), test.ShouldEqual, zapcore.Level(tc.expected).String())
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}
