package service

import (
	"sync"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/models"
	"github.com/rs/zerolog"
)

type eventBroadcaster struct {
	mu        sync.Mutex
	observers map[string]*observerEntry

	logger *logger.Logger
}

// observerEntry gives every attachment its own identity so a stale detach
// cannot remove the observer that replaced it.
type observerEntry struct {
	notify Observer
}

// NewEventBroadcaster returns a broadcaster with no observers attached.
func NewEventBroadcaster(logger *logger.Logger) EventBroadcaster {
	return &eventBroadcaster{
		observers: make(map[string]*observerEntry),
		logger:    logger,
	}
}

func (b *eventBroadcaster) Attach(slot string, o Observer) func() {
	entry := &observerEntry{notify: o}

	b.mu.Lock()
	_, replaced := b.observers[slot]
	b.observers[slot] = entry
	b.mu.Unlock()

	if replaced {
		b.logger.Info().Str("slot", slot).Msg("observer replaced")
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.observers[slot] == entry {
			delete(b.observers, slot)
		}
	}
}

// Emit writes event to the operational log and then hands it to the
// slot's observer. Events of a slot without an observer are dropped.
func (b *eventBroadcaster) Emit(slot string, event models.Event) {
	event.Slot = slot
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	b.log(event)

	b.mu.Lock()
	entry := b.observers[slot]
	b.mu.Unlock()

	if entry != nil {
		entry.notify(event)
	}
}

func (b *eventBroadcaster) log(event models.Event) {
	var e *zerolog.Event
	switch event.Severity {
	case models.SeverityError:
		e = b.logger.Error()
	case models.SeverityWarn:
		e = b.logger.Warn()
	default:
		e = b.logger.Info()
	}

	e = e.Str("slot", event.Slot).Str("event", string(event.Type))
	switch {
	case event.SessionInfo != nil:
		e = e.Str("account", event.SessionInfo.AccountNumber).Int("groups", len(event.SessionInfo.Groups))
	case event.Account != nil:
		e = e.Str("account", event.Account.Number)
	case event.State != nil:
		e = e.Str("state", string(event.State.State)).Str("reason", string(event.State.Reason))
	}
	if event.Severity != "" {
		e = e.Str("severity", string(event.Severity))
	}
	e.Msg(event.Message)
}

// emitLog is a shorthand for the log events every component sends.
func emitLog(b EventBroadcaster, slot string, severity models.Severity, msg string) {
	b.Emit(slot, models.NewLogEvent(slot, severity, msg))
}
