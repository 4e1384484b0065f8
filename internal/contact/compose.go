// internal/contact/compose.go
package contact

import (
	"fmt"
	"net/mail"

	"github.com/dalemusser/contactform/internal/apperr"
)

// MailSubject returns the notification subject line. With no custom subject it
// reads "You have received a new message from <site>!".
func (s Submission) MailSubject() string {
	return fmt.Sprintf("%s %s!", s.Subject, s.FromSite)
}

// MailBody returns the notification body text.
func (s Submission) MailBody() string {
	if s.HasCustomSubject() {
		return fmt.Sprintf("%s has sent a message.\nSubject: %s\n\nMessage: %s",
			s.FullName, s.Subject, s.Message)
	}
	return fmt.Sprintf("%s sent you the following message:\n\n%s",
		s.FullName, s.Message)
}

// Compose builds the outbound notification for a validated submission.
//
// The From mailbox carries the submitter's name with the relay's own sending
// address; Reply-To points back at the submitter. A submitter address that
// does not parse is reported as a Validation error, while a bad sending or
// destination address is a Compose error since those come from config.
func Compose(s Submission, sendingEmail, destinationEmail string) (*OutboundMessage, error) {
	sender, err := mail.ParseAddress(sendingEmail)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Compose, "invalid sending address")
	}

	replyTo, err := mail.ParseAddress(s.Email)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Validation, EmailErrorMessage)
	}

	to, err := mail.ParseAddress(destinationEmail)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Compose, "invalid destination address")
	}

	from := &mail.Address{Name: s.FullName, Address: sender.Address}
	// Round-trip the formatted mailbox so a name that cannot be encoded is
	// caught here rather than by the transport.
	if _, err := mail.ParseAddress(from.String()); err != nil {
		return nil, apperr.Wrap(err, apperr.Compose, "invalid sender mailbox")
	}

	return &OutboundMessage{
		From:    from,
		ReplyTo: replyTo,
		To:      to,
		Subject: s.MailSubject(),
		Body:    s.MailBody(),
	}, nil
}
