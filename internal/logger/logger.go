package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Setup returns a text logger writing to out. An unparsable level falls
// back to info.
func Setup(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	log.SetLevel(logrus.InfoLevel)
	l, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("parse log level %s failed, using default level info", level)
	} else {
		log.SetLevel(l)
	}
	return log
}
