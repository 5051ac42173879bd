package whatsapp

import (
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// slogLogger bridges whatsmeow's logger interface onto slog.
type slogLogger struct {
	module string
}

func newLogger(module string) waLog.Logger {
	return &slogLogger{module: module}
}

func (l *slogLogger) Errorf(msg string, args ...interface{}) {
	slog.Error(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l *slogLogger) Warnf(msg string, args ...interface{}) {
	slog.Warn(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l *slogLogger) Infof(msg string, args ...interface{}) {
	slog.Info(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l *slogLogger) Debugf(msg string, args ...interface{}) {
	slog.Debug(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l *slogLogger) Sub(module string) waLog.Logger {
	return &slogLogger{module: l.module + "/" + module}
}
