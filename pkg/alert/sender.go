package alert

import (
	"github.com/sirupsen/logrus"
)

// LogSender writes notifications to the log instead of delivering them
// anywhere. It is the default sender for the CLI, where no transport is
// configured.
type LogSender struct {
	Logger *logrus.Logger
}

// Send logs the notification and always succeeds.
func (s LogSender) Send(subject, body string, recipients []string) error {
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithField("recipients", recipients).Infof("ALERT: %s\n%s", subject, body)
	return nil
}
