// Package handler serves the contact form endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/dalemusser/contactform/httputil"
	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/dalemusser/contactform/internal/contact"
	"github.com/dalemusser/contactform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	// IndexMessage is the GET / body.
	IndexMessage = "Nothing to see here!"

	// SuccessMessage is the POST / body once the transport accepted the mail.
	SuccessMessage = "Thank you! We'll get in touch as soon as we have a response."
)

// Sender hands a composed message to the mail transport.
type Sender interface {
	Send(ctx context.Context, msg *contact.OutboundMessage) error
}

// Handler holds the relay addresses and the sender. It is safe for
// concurrent use; nothing is mutated after New.
type Handler struct {
	sendingEmail     string
	destinationEmail string
	sender           Sender
	logger           *zap.Logger
}

// New returns a Handler relaying from sendingEmail to destinationEmail.
func New(sendingEmail, destinationEmail string, sender Sender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sendingEmail:     sendingEmail,
		destinationEmail: destinationEmail,
		sender:           sender,
		logger:           logger,
	}
}

// Mount registers GET / and POST / on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/", h.Submit)
}

// Index answers with a fixed greeting.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteText(w, http.StatusOK, IndexMessage)
}

// Submit decodes, validates, composes and sends one submission. The
// submitter's address is checked before anything reaches the transport.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	msg, err := h.prepare(r)
	if err == nil {
		err = h.sender.Send(r.Context(), msg)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	metrics.ObserveSubmission("sent")
	httputil.WriteText(w, http.StatusOK, SuccessMessage)
}

func (h *Handler) prepare(r *http.Request) (*contact.OutboundMessage, error) {
	sub, err := contact.Decode(r)
	if err != nil {
		return nil, err
	}
	if err := contact.ValidateEmail(sub.Email); err != nil {
		return nil, err
	}
	return contact.Compose(sub, h.sendingEmail, h.destinationEmail)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	status := e.Kind.Status()
	metrics.ObserveSubmission(e.Kind.String())

	fields := []zap.Field{
		zap.String("kind", e.Kind.String()),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("submission failed", append(fields, zap.Error(err))...)
	} else {
		h.logger.Info("submission rejected", append(fields, zap.String("reason", e.Message))...)
	}

	httputil.WriteText(w, status, e.Message)
}
