package core

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var Logger = newLogger()

var verbose int32

func newLogger() *logrus.Logger {
	formatter := &logrus.TextFormatter{
		TimestampFormat:        "2006-01-02T15:04:05.000",
		FullTimestamp:          true,
		DisableColors:          true,
		DisableLevelTruncation: true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", formatFilePath(f.File), f.Line)
		},
	}

	return &logrus.Logger{
		Out:       os.Stdout,
		Level:     logrus.InfoLevel,
		Hooks:     make(logrus.LevelHooks),
		Formatter: formatter,
		ExitFunc:  os.Exit,
	}
}

// InitLog sets the verbosity used by the V1..V5 helpers. Any verbosity above zero
// also enables debug level output and caller reporting.
func InitLog(level int) {
	atomic.StoreInt32(&verbose, int32(level))
	if level > 0 {
		Logger.SetLevel(logrus.DebugLevel)
		Logger.SetReportCaller(true)
		return
	}
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetReportCaller(false)
}

func formatFilePath(path string) string {
	arr := strings.Split(path, "/")
	return arr[len(arr)-1]
}

func Error(format string, v ...interface{}) {
	Logger.Errorf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	Logger.Fatalf(format, v...)
}

func Warn(format string, v ...interface{}) {
	Logger.Warnf(format, v...)
}

func Info(format string, v ...interface{}) {
	Logger.Infof(format, v...)
}

func verboseLog(level int32, format string, v ...interface{}) {
	if atomic.LoadInt32(&verbose) < level {
		return
	}
	Logger.Debugf(format, v...)
}

func V1(format string, v ...interface{}) {
	verboseLog(1, format, v...)
}

func V2(format string, v ...interface{}) {
	verboseLog(2, format, v...)
}

func V5(format string, v ...interface{}) {
	verboseLog(5, format, v...)
}
