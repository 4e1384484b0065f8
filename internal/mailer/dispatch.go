package mailer

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/dalemusser/contactform/internal/contact"
	"github.com/dalemusser/contactform/metrics"
	"go.uber.org/zap"
)

// Dispatcher sends through one Transport with a per-message deadline and
// reports every failure as an apperr Transport error. There is no retry:
// the submitter sees the failure and can post again.
type Dispatcher struct {
	transport Transport
	timeout   time.Duration
	logger    *zap.Logger
}

// NewDispatcher wraps t. A timeout of zero disables the deadline.
func NewDispatcher(t Transport, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{transport: t, timeout: timeout, logger: logger}
}

// TransportName names the wrapped transport.
func (d *Dispatcher) TransportName() string { return d.transport.Name() }

// Send sends msg and blocks until the transport accepts or rejects it.
func (d *Dispatcher) Send(ctx context.Context, msg *contact.OutboundMessage) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	err := d.transport.Send(ctx, msg)
	elapsed := time.Since(start)
	metrics.ObserveSend(d.transport.Name(), err, elapsed)

	if err == nil {
		d.logger.Info("mail dispatched",
			zap.String("transport", d.transport.Name()),
			zap.Stringer("message", msg),
			zap.Duration("elapsed", elapsed))
		return nil
	}

	d.logger.Error("mail dispatch failed",
		zap.String("transport", d.transport.Name()),
		zap.Stringer("message", msg),
		zap.Duration("elapsed", elapsed),
		zap.Error(err))

	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Wrap(err, apperr.Transport, "mail transport timed out after "+d.timeout.String())
	}
	return apperr.Wrap(err, apperr.Transport, "mail transport failed: "+err.Error())
}

// Check probes the transport when it supports it.
func (d *Dispatcher) Check(ctx context.Context) error {
	c, ok := d.transport.(Checker)
	if !ok {
		return nil
	}
	if err := c.Check(ctx); err != nil {
		return apperr.Wrap(err, apperr.Transport, "mail transport unavailable")
	}
	return nil
}
