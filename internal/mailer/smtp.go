package mailer

import (
	"context"
	"time"

	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/dalemusser/contactform/internal/contact"
	"github.com/wneessen/go-mail"
)

// SMTPOptions configures the SMTP transport.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string // PLAIN auth when set
	Password string
	TLS      string // mandatory | opportunistic | ssl | none
	Timeout  time.Duration
}

// SMTP relays messages through an SMTP server. Each send gets its own
// client and connection, so concurrent submissions never share a session.
type SMTP struct {
	host       string
	clientOpts []mail.Option
}

// NewSMTP validates opts and prepares a client.
func NewSMTP(opts SMTPOptions) (*SMTP, error) {
	if opts.Port == 0 {
		opts.Port = 587
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTimeout(opts.Timeout),
	}

	switch opts.TLS {
	case "", "mandatory":
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.TLSMandatory))
	case "opportunistic":
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		return nil, apperr.Newf(apperr.Config, "unknown smtp_tls mode %q", opts.TLS)
	}

	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}

	s := &SMTP{host: opts.Host, clientOpts: clientOpts}
	if _, err := s.newClient(); err != nil {
		return nil, apperr.Wrap(err, apperr.Config, "invalid smtp settings")
	}
	return s, nil
}

func (s *SMTP) newClient() (*mail.Client, error) {
	return mail.NewClient(s.host, s.clientOpts...)
}

// Name implements Transport.
func (s *SMTP) Name() string { return "smtp" }

// Send implements Transport.
func (s *SMTP) Send(ctx context.Context, msg *contact.OutboundMessage) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}
	c, err := s.newClient()
	if err != nil {
		return sendError(s.Name(), err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return sendError(s.Name(), err)
	}
	return nil
}

// Check opens and closes a session with the server.
func (s *SMTP) Check(ctx context.Context) error {
	c, err := s.newClient()
	if err != nil {
		return sendError(s.Name(), err)
	}
	if err := c.DialWithContext(ctx); err != nil {
		return sendError(s.Name(), err)
	}
	return c.Close()
}
