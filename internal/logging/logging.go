package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global logrus logger: JSON lines on stdout, mirrored
// to a rotating file when filePath is set. An unknown level falls back to info.
func Setup(service, level, filePath string) *log.Entry {
	log.SetFormatter(&log.JSONFormatter{})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	var out io.Writer = os.Stdout
	if filePath != "" {
		_ = os.MkdirAll(filepath.Dir(filePath), 0o755)
		rot := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		out = io.MultiWriter(os.Stdout, rot)
	}
	log.SetOutput(out)

	entry := log.WithField("service", service)
	if err != nil && level != "" {
		entry.WithField("level", level).Warn("Unknown log level, using info")
	}
	return entry
}

// RequestLogger logs one line per request with the route template
func RequestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := log.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
			"status": c.Writer.Status(),
		}
		if len(c.Errors) > 0 {
			logger.WithFields(fields).Warn(c.Errors.String())
			return
		}
		logger.WithFields(fields).Debug("Request handled")
	}
}
