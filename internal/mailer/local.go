package mailer

import log "github.com/sirupsen/logrus"

// LocalSender only logs messages; used in development.
type LocalSender struct {
	logger log.FieldLogger
}

func NewLocalSender(logger log.FieldLogger) *LocalSender {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LocalSender{logger: logger}
}

func (s *LocalSender) Send(to, subject, textBody string) error {
	s.logger.WithFields(log.Fields{
		"to":      to,
		"subject": subject,
	}).Infof("mailer.local: body=%q", textBody)
	return nil
}
