package uptask

import (
	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus entry to the Logger interface.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds the process logger at the given level. An
// unparseable level falls back to info.
func NewLogrusLogger(level string) *LogrusLogger {
	l := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &LogrusLogger{
		entry: logrus.NewEntry(l).WithField("app", "uptask"),
	}
}

func (l *LogrusLogger) Debug(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *LogrusLogger) Info(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *LogrusLogger) Warn(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *LogrusLogger) Error(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

var _ Logger = (*LogrusLogger)(nil)
