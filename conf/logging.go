package conf

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LoggingConfig controls the logrus setup for the whole process.
type LoggingConfig struct {
	Level            string `envconfig:"LEVEL" default:"info"`
	File             string `envconfig:"FILE"`
	DisableColors    bool   `envconfig:"DISABLE_COLORS"`
	QuoteEmptyFields bool   `envconfig:"QUOTE_EMPTY_FIELDS"`
}

// ConfigureLogging will take the logging configuration and configure the
// standard logrus logger accordingly.
func ConfigureLogging(config *LoggingConfig) error {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableColors:    config.DisableColors,
		QuoteEmptyFields: config.QuoteEmptyFields,
	})

	if config.File != "" {
		f, err := os.OpenFile(config.File, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0660)
		if err != nil {
			return errors.Wrap(err, "opening log file")
		}
		logrus.SetOutput(f)
		logrus.Infof("Set output file to %s", config.File)
	}

	if config.Level != "" {
		level, err := logrus.ParseLevel(config.Level)
		if err != nil {
			return errors.Wrap(err, "parsing log level")
		}
		logrus.SetLevel(level)
		logrus.Debug("Set log level to: " + logrus.GetLevel().String())
	}

	return nil
}
