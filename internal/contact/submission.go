// internal/contact/submission.go

// Package contact holds the contact-form domain: decoding a submission from
// form or JSON bodies, validating the submitter's mailbox, and composing the
// outbound notification.
package contact

import (
	"fmt"
	"net/mail"
)

// DefaultSubject is used when a submission carries no subject. It is also the
// value Compose compares against to decide whether the submitter chose a
// subject of their own, so it must stay the single source for both.
const DefaultSubject = "You have received a new message from"

// Submission is one normalized contact-form request.
type Submission struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Subject  string `json:"subject"`
	Message  string `json:"message" validate:"required"`
	FromSite string `json:"from_site"`
}

// HasCustomSubject reports whether the submitter supplied a subject other
// than DefaultSubject.
func (s Submission) HasCustomSubject() bool {
	return s.Subject != DefaultSubject
}

// OutboundMessage is the notification handed to a mail transport.
type OutboundMessage struct {
	From    *mail.Address
	ReplyTo *mail.Address
	To      *mail.Address
	Subject string
	Body    string
}

// String summarizes the message for logs without including the body.
func (m *OutboundMessage) String() string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("from=%s reply_to=%s to=%s subject=%q",
		addrString(m.From), addrString(m.ReplyTo), addrString(m.To), m.Subject)
}

func addrString(a *mail.Address) string {
	if a == nil {
		return ""
	}
	return a.Address
}
