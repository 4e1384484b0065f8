package mailer

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/contactform/internal/contact"
)

// Sendmail pipes messages into a local sendmail-compatible binary.
// Recipients are taken from the headers (-t); -oi keeps a lone "." line in
// the body from ending the message.
type Sendmail struct {
	path string
}

// NewSendmail returns a transport that runs the binary at path.
func NewSendmail(path string) *Sendmail {
	return &Sendmail{path: path}
}

// Name implements Transport.
func (s *Sendmail) Name() string { return "sendmail" }

// Send implements Transport.
func (s *Sendmail) Send(ctx context.Context, msg *contact.OutboundMessage) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}
	if err := m.WriteToSendmailWithContext(ctx, s.path, "-oi", "-t"); err != nil {
		return sendError(s.Name(), err)
	}
	return nil
}

// Check verifies the binary exists and is executable.
func (s *Sendmail) Check(context.Context) error {
	fi, err := os.Stat(s.path)
	if err != nil {
		return sendError(s.Name(), err)
	}
	if fi.IsDir() || fi.Mode()&0o111 == 0 {
		return sendError(s.Name(), fmt.Errorf("%s is not executable", s.path))
	}
	return nil
}
