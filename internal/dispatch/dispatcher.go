package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/minhvu/pushrelay/internal/apperr"
	"github.com/minhvu/pushrelay/internal/metrics"
	"github.com/minhvu/pushrelay/internal/model"
	"github.com/minhvu/pushrelay/internal/push"
	"github.com/minhvu/pushrelay/internal/store"
)

// Dispatcher handles notification-created events: it resolves the
// recipient's push token, makes exactly one delivery attempt and writes the
// terminal status back onto the originating record.
//
// Delivery failure is business-level, not function-level: every domain
// failure is absorbed into a persisted failed status and the event is still
// considered handled. Only a failure of the status write itself surfaces as
// an error to the caller.
type Dispatcher struct {
	store     store.RecordStore
	transport push.Transport
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func New(store store.RecordStore, transport push.Transport, logger *slog.Logger) *Dispatcher {
	l := logger.With("component", "dispatcher")
	return &Dispatcher{
		store:     store,
		transport: transport,
		logger:    l,
		tracer:    otel.Tracer("dispatcher"),
		now:       time.Now,
	}
}

// HandleCreated processes one created notification record by id.
func (d *Dispatcher) HandleCreated(ctx context.Context, id string) error {
	ctx, span := d.tracer.Start(ctx, "HandleCreated",
		trace.WithAttributes(attribute.String("notification.id", id)))
	defer span.End()

	n, err := d.store.GetNotification(ctx, id)
	if apperr.IsNotFound(err) {
		// The record was swept or never committed; nothing to deliver.
		d.logger.Warn("Notification record not found, skipping", slog.String("id", id))
		metrics.DispatchTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to load notification %s: %w", id, err)
	}

	// Redelivery guard: the platform may fire the same creation event more
	// than once. A terminal record gets no second delivery attempt.
	if n.Terminal() {
		d.logger.Info("Notification already terminal, skipping",
			slog.String("id", n.ID), slog.String("status", n.Status))
		metrics.DispatchTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	recipient, err := d.store.GetRecipient(ctx, n.TargetRecipientID)
	switch {
	case apperr.IsNotFound(err):
		d.logger.Warn("Recipient not found",
			slog.String("id", n.ID), slog.String("recipient_id", n.TargetRecipientID))
		return d.fail(ctx, n, model.ReasonRecipientNotFound)
	case err != nil:
		d.logger.Error("Recipient lookup failed",
			slog.String("id", n.ID), slog.Any("error", err))
		span.RecordError(err)
		return d.fail(ctx, n, err.Error())
	case recipient.PushToken == "":
		d.logger.Warn("Recipient has no push token",
			slog.String("id", n.ID), slog.String("recipient_id", n.TargetRecipientID))
		return d.fail(ctx, n, model.ReasonNoPushToken)
	}

	msg := push.Message{
		Token: recipient.PushToken,
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data,
	}

	messageID, err := d.transport.Send(ctx, msg)
	if err != nil {
		d.logger.Error("Push delivery failed",
			slog.String("id", n.ID), slog.Any("error", err))
		span.RecordError(err)
		return d.fail(ctx, n, err.Error())
	}

	if err := d.store.MarkSent(ctx, n.ID, messageID, d.now().UTC()); err != nil {
		return d.writeFailed(span, n, err)
	}

	d.logger.Info("Notification delivered",
		slog.String("id", n.ID), slog.String("message_id", messageID))
	metrics.DispatchTotal.WithLabelValues("sent").Inc()
	return nil
}

// fail persists the terminal failed status with a human-readable reason.
func (d *Dispatcher) fail(ctx context.Context, n *model.Notification, reason string) error {
	ctx, span := d.tracer.Start(ctx, "MarkFailed")
	defer span.End()

	if err := d.store.MarkFailed(ctx, n.ID, reason, d.now().UTC()); err != nil {
		return d.writeFailed(span, n, err)
	}
	metrics.DispatchTotal.WithLabelValues("failed").Inc()
	return nil
}

// writeFailed makes a lost status write an explicit, observable state
// instead of letting it vanish. The event is still acked by the consumer;
// there is no retry.
func (d *Dispatcher) writeFailed(span trace.Span, n *model.Notification, err error) error {
	d.logger.Error("Terminal status write failed, record stays pending",
		slog.String("id", n.ID), slog.Any("error", err))
	metrics.StatusWriteFailures.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("status write for notification %s failed: %w", n.ID, err)
}
