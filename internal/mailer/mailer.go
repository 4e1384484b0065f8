// Package mailer hands composed contact messages to a mail transport.
//
// Three transports are available: the local sendmail binary, an SMTP relay
// and Amazon SES. All of them render the message with go-mail so the wire
// format is identical whichever one is configured.
package mailer

import (
	"context"
	"fmt"

	"github.com/dalemusser/contactform/config"
	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/dalemusser/contactform/internal/contact"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Transport delivers one message. Implementations must honor ctx.
type Transport interface {
	Send(ctx context.Context, msg *contact.OutboundMessage) error
	Name() string
}

// Checker is implemented by transports that can verify they are usable
// without sending anything.
type Checker interface {
	Check(ctx context.Context) error
}

// New builds the transport selected by cfg.Transport.
func New(ctx context.Context, cfg config.MailConfig, logger *zap.Logger) (Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Transport {
	case config.TransportSendmail, "":
		logger.Info("mail transport: sendmail", zap.String("path", cfg.SendmailPath))
		return NewSendmail(cfg.SendmailPath), nil
	case config.TransportSMTP:
		logger.Info("mail transport: smtp",
			zap.String("host", cfg.SMTPHost),
			zap.Int("port", cfg.SMTPPort),
			zap.String("tls", cfg.SMTPTLS),
			zap.Bool("auth", cfg.SMTPUsername != ""))
		return NewSMTP(SMTPOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			TLS:      cfg.SMTPTLS,
			Timeout:  cfg.SendTimeout,
		})
	case config.TransportSES:
		logger.Info("mail transport: ses",
			zap.String("region", cfg.SESRegion),
			zap.Bool("static_credentials", cfg.SESAccessKey != ""))
		return NewSES(ctx, cfg.SESRegion, cfg.SESAccessKey, cfg.SESSecretKey)
	default:
		return nil, apperr.Newf(apperr.Config, "unknown mail transport %q", cfg.Transport)
	}
}

// buildMsg renders msg as a go-mail message.
func buildMsg(msg *contact.OutboundMessage) (*mail.Msg, error) {
	if msg == nil || msg.From == nil || msg.To == nil {
		return nil, apperr.New(apperr.Compose, "incomplete outbound message")
	}

	m := mail.NewMsg()
	if err := m.FromFormat(msg.From.Name, msg.From.Address); err != nil {
		return nil, apperr.Wrap(err, apperr.Compose, "invalid from address")
	}
	if err := m.To(msg.To.String()); err != nil {
		return nil, apperr.Wrap(err, apperr.Compose, "invalid to address")
	}
	if msg.ReplyTo != nil {
		if err := m.ReplyToFormat(msg.ReplyTo.Name, msg.ReplyTo.Address); err != nil {
			return nil, apperr.Wrap(err, apperr.Compose, "invalid reply-to address")
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	m.SetDate()
	m.SetMessageID()
	return m, nil
}

func sendError(name string, err error) error {
	return fmt.Errorf("%s: %w", name, err)
}
