package logger

import (
	"io"
	"os"

	"sofimed-core/internal/app/config"

	"github.com/sirupsen/logrus"
)

// NewLogger construit le logger structuré de l'application
func NewLogger(cfg *config.Config) *logrus.Logger {
	logg := logrus.New()
	logg.SetOutput(os.Stdout)

	logging := cfg.GetLogging()
	if logging.Format == "json" {
		logg.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logg.SetLevel(level)

	return logg
}

// NewDiscardLogger retourne un logger muet, utile dans les tests
func NewDiscardLogger() *logrus.Logger {
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	return logg
}

// LogError trace une erreur avec son module, sa fonction et son contexte
func LogError(logg *logrus.Logger, moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logg.WithFields(fields).Error(err.Error())
}
