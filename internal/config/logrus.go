package config

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

// GetLogger returns the process-wide logger.
func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = NewLogger("info", "json", os.Stdout)
}

// NewLogger builds a logrus logger. Unknown levels fall back to info and
// any format other than "text" produces JSON.
func NewLogger(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)
	return logger
}

// OrDefault returns logger, or the process-wide logger when it is nil.
func OrDefault(logger *logrus.Logger) *logrus.Logger {
	if logger == nil {
		return GetLogger()
	}
	return logger
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	OrDefault(logger).WithFields(fields).Error(err.Error())
}
