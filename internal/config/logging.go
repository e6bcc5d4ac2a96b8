package config

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// SetupLogging configures the standard logrus logger and returns it.
// format is "text" or "json".
func SetupLogging(w io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var f logrus.Formatter
	switch format {
	case "", "text":
		f = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.DateTime}
	case "json":
		f = &logrus.JSONFormatter{TimestampFormat: time.RFC3339}
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	log := logrus.StandardLogger()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(f)
	return log, nil
}
