package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/validators"
	"github.com/MKhiriev/go-session-keeper/models"
)

type messageDispatcher struct {
	lifecycle LifecycleManager
	validator validators.Validator
	events    EventBroadcaster

	logger *logger.Logger
}

func NewMessageDispatcher(lifecycle LifecycleManager, events EventBroadcaster, logger *logger.Logger) MessageDispatcher {
	return &messageDispatcher{
		lifecycle: lifecycle,
		validator: validators.NewRequestValidator(),
		events:    events,
		logger:    logger,
	}
}

// SendMessage checks that the slot is Ready before looking at the request,
// then sends it exactly once. Failures are reported as error events and
// never retried.
func (d *messageDispatcher) SendMessage(ctx context.Context, slot string, req models.SendMessageRequest) error {
	conn, err := d.lifecycle.ReadyConnector(slot)
	if err != nil {
		emitLog(d.events, slot, models.SeverityError, "Client is not connected")
		return err
	}

	if err := d.validator.Validate(ctx, req); err != nil {
		emitLog(d.events, slot, models.SeverityError, "Invalid number or message: "+err.Error())
		return err
	}

	recipient, err := validators.NormalizeRecipient(req.Number)
	if err != nil {
		emitLog(d.events, slot, models.SeverityError, "Invalid number or message: "+err.Error())
		return err
	}

	emitLog(d.events, slot, models.SeverityInfo, fmt.Sprintf("Sending message to %s...", req.Number))
	if err := conn.SendMessage(ctx, recipient, req.Message); err != nil {
		d.logger.Error().Err(err).Str("slot", slot).Str("recipient", recipient).Msg("error sending message")
		emitLog(d.events, slot, models.SeverityError, "Message could not be sent")
		return fmt.Errorf("%w: %w", ErrSendMessage, err)
	}

	emitLog(d.events, slot, models.SeveritySuccess, "Message sent")
	return nil
}
