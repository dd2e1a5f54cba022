// Package log configures the logrus logger shared by dispatch, the core and
// the plugins. Debug, info and warning messages go to stdout; errors go to
// stderr. Once a stage is set ("Frontend", "Backend"), every line is prefixed
// with the level and the stage.
package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the verbosity selected on the command line.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
	LevelQuiet
)

// Formatter renders "message" or, once Stage is set, "[LEVEL   ] [Stage] message".
type Formatter struct {
	Stage string
}

// Format implements logrus.Formatter
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	if f.Stage == "" {
		return []byte(entry.Message + "\n"), nil
	}
	level := strings.ToUpper(entry.Level.String())
	return []byte(fmt.Sprintf("[%-8s] [%s] %s\n", level, f.Stage, entry.Message)), nil
}

// splitHook writes entries to stdout or stderr depending on their level.
type splitHook struct {
	stdout io.Writer
	stderr io.Writer
	levels []logrus.Level
}

func (h *splitHook) Levels() []logrus.Level {
	return h.levels
}

func (h *splitHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	w := h.stdout
	if entry.Level <= logrus.ErrorLevel {
		w = h.stderr
	}
	_, err = w.Write(line)
	return err
}

// Configure sets up logger for the given verbosity, writing to stdout and stderr.
func Configure(logger *logrus.Logger, level Level, stdout, stderr io.Writer) {
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&Formatter{})
	logger.ReplaceHooks(make(logrus.LevelHooks))

	hook := &splitHook{stdout: stdout, stderr: stderr}
	switch level {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
		hook.levels = logrus.AllLevels
	case LevelQuiet:
		// Nothing is ever written, not even errors
		logger.SetLevel(logrus.PanicLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
		hook.levels = logrus.AllLevels
	}
	logger.AddHook(hook)
}

// New creates a logger configured with Configure.
func New(level Level, stdout, stderr io.Writer) *logrus.Logger {
	logger := logrus.New()
	Configure(logger, level, stdout, stderr)
	return logger
}

// SetStage switches the logger to the stage-prefixed format.
func SetStage(logger *logrus.Logger, stage string) {
	logger.SetFormatter(&Formatter{Stage: stage})
}
