// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"

	"paybaba/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Init applies level, format and output from cfg to the standard logger.
func Init(cfg config.LoggingConfig) {
	Configure(logrus.StandardLogger(), cfg)
}

// Configure applies cfg to l.
func Configure(l *logrus.Logger, cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	default:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	switch {
	case cfg.Output == "file" && cfg.FilePath != "":
		l.SetOutput(fileWriter(cfg))
	case cfg.Output == "both" && cfg.FilePath != "":
		l.SetOutput(io.MultiWriter(os.Stdout, fileWriter(cfg)))
	default:
		l.SetOutput(os.Stdout)
	}
}

// fileWriter rotates the log file by size and age.
func fileWriter(cfg config.LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}
