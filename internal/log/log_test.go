package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

func logAll(logger *logrus.Logger) {
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warning")
	logger.Error("error")
}

func TestQuiet(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(LevelQuiet, &stdout, &stderr)
	logAll(logger)

	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("Expected no output, got stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestDebug(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(LevelDebug, &stdout, &stderr)
	logAll(logger)

	if stdout.String() != "debug\ninfo\nwarning\n" {
		t.Errorf("Unexpected stdout: %q", stdout.String())
	}
	if stderr.String() != "error\n" {
		t.Errorf("Unexpected stderr: %q", stderr.String())
	}
}

func TestDefaultLevelHidesDebug(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(LevelInfo, &stdout, &stderr)
	logAll(logger)

	if stdout.String() != "info\nwarning\n" {
		t.Errorf("Unexpected stdout: %q", stdout.String())
	}
}

func TestSetStage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(LevelDebug, &stdout, &stderr)
	SetStage(logger, "foo")
	logger.Debug("debug")
	logger.Error("error")

	if stdout.String() != "[DEBUG   ] [foo] debug\n" {
		t.Errorf("Unexpected stdout: %q", stdout.String())
	}
	if stderr.String() != "[ERROR   ] [foo] error\n" {
		t.Errorf("Unexpected stderr: %q", stderr.String())
	}
}

func TestConfigureTwiceKeepsOneHook(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := logrus.New()
	Configure(logger, LevelInfo, &stdout, &stderr)
	Configure(logger, LevelInfo, &stdout, &stderr)
	logger.Info("once")

	if stdout.String() != "once\n" {
		t.Errorf("Unexpected stdout: %q", stdout.String())
	}
}
