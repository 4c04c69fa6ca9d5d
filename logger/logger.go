package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled, key/value logger used across the module.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

type logrusLogger struct {
	log *logrus.Logger
}

// New 创建基于 logrus 的日志器，level 为 debug/info/warn/error，无法识别时使用 info。
func New(level string, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(parseLevel(level))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return &logrusLogger{log: l}
}

func (l *logrusLogger) Debug(msg string, fields ...any) {
	l.log.WithFields(toFields(fields)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields ...any) {
	l.log.WithFields(toFields(fields)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields ...any) {
	l.log.WithFields(toFields(fields)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, err error, fields ...any) {
	l.log.WithFields(toFields(fields)).WithError(err).Error(msg)
}

// toFields 将 k1, v1, k2, v2 ... 转为 logrus.Fields，落单的键被忽略。
func toFields(kv []any) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type nopLogger struct{}

// Nop returns a logger that discards everything; used by tests.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any)        {}
func (nopLogger) Info(string, ...any)         {}
func (nopLogger) Warn(string, ...any)         {}
func (nopLogger) Error(string, error, ...any) {}
