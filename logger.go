package lapindex

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is satisfied by *logrus.Logger and *logrus.Entry.
type Logger = logrus.FieldLogger

func NewLogger(out io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)

	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(lvl)

	return logger, nil
}
