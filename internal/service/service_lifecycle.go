// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/store"
	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/MKhiriev/go-session-keeper/models"
)

const (
	teardownTimeout = 10 * time.Second
	historyTimeout  = 5 * time.Second

	stoppedReason = "stopped"
)

type lifecycleManager struct {
	factory  adapter.ConnectorFactory
	sessions store.SessionStore
	info     InfoFetcher
	events   EventBroadcaster
	history  store.RestoreHistoryRepository
	ids      *utils.UUIDGenerator

	validationTimeout time.Duration

	mu      sync.Mutex
	clients map[string]*clientSession

	logger *logger.Logger
}

// NewLifecycleManager returns a manager with every slot Idle.
func NewLifecycleManager(
	factory adapter.ConnectorFactory,
	sessions store.SessionStore,
	info InfoFetcher,
	events EventBroadcaster,
	history store.RestoreHistoryRepository,
	cfg config.App,
	logger *logger.Logger,
) LifecycleManager {
	return &lifecycleManager{
		factory:           factory,
		sessions:          sessions,
		info:              info,
		events:            events,
		history:           history,
		ids:               utils.NewUUIDGenerator(),
		validationTimeout: cfg.ValidationTimeout,
		clients:           make(map[string]*clientSession),
		logger:            logger,
	}
}

func (m *lifecycleManager) Start(ctx context.Context, slot string, session models.ExtractedSession) error {
	m.mu.Lock()
	if current := m.clients[slot]; current != nil {
		switch current.State() {
		case models.StateReady:
			m.mu.Unlock()
			emitLog(m.events, slot, models.SeverityInfo, "Client is already connected, fetching account info...")
			return m.info.Fetch(ctx, slot, current.Connector())
		case models.StateInitializing, models.StateAwaitingValidation:
			m.mu.Unlock()
			return ErrSessionBusy
		}
	}

	if session.ID == "" || session.Path == "" {
		m.mu.Unlock()
		return fmt.Errorf("%w: no extracted session to start", ErrInternal)
	}

	dir, err := m.sessions.Locate(session.ID)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: session directory unavailable: %w", ErrInternal, err)
	}
	session.Path = dir

	cs := newClientSession(slot, session, m.ids.Generate(), m.logger)
	m.clients[slot] = cs
	m.mu.Unlock()

	m.report(cs)
	emitLog(m.events, slot, models.SeverityInfo, "Starting client...")

	conn, err := m.factory.NewConnector(session)
	if err != nil {
		m.fail(cs, models.FailureInternalError, err, models.StateInitializing)
		return fmt.Errorf("%w: error creating connector: %w", ErrInternal, err)
	}
	if !cs.setConnector(conn) {
		// Stop ended the session while the connector was being built.
		_ = m.closeConnector(ctx, cs, conn)
		return nil
	}
	conn.Subscribe(cs.onConnectorEvent)

	emitLog(m.events, slot, models.SeverityInfo, "Authenticating with the saved session...")
	if err := conn.Initialize(ctx); err != nil {
		reason, sentinel := models.FailureInternalError, ErrInternal
		if errors.Is(err, adapter.ErrSessionRejected) {
			reason, sentinel = models.FailureAuthInvalid, ErrAuthInvalid
		}
		m.fail(cs, reason, err, models.StateInitializing)
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	// Stop may have ended the session while Initialize was running.
	if !cs.transition(models.StateAwaitingValidation, models.FailureNone, "", models.StateInitializing) {
		_ = m.teardown(ctx, cs)
		return nil
	}
	m.report(cs)

	cs.armTimer(m.validationTimeout)
	go m.run(cs)

	return nil
}

func (m *lifecycleManager) Status(slot string) models.SessionStatus {
	cs := m.lookup(slot)
	if cs == nil {
		return models.SessionStatus{Slot: slot, State: models.StateIdle}
	}
	return cs.status()
}

func (m *lifecycleManager) ReadyConnector(slot string) (adapter.Connector, error) {
	cs := m.lookup(slot)
	if cs == nil {
		return nil, &PreconditionError{Slot: slot, State: models.StateIdle}
	}

	if state := cs.State(); state != models.StateReady {
		return nil, &PreconditionError{Slot: slot, State: state}
	}
	return cs.Connector(), nil
}

// Stop tears down the live client of slot. Slots without a live client are
// left untouched.
func (m *lifecycleManager) Stop(ctx context.Context, slot string) error {
	cs := m.lookup(slot)
	if cs == nil {
		return nil
	}

	live := []models.SessionState{models.StateInitializing, models.StateAwaitingValidation, models.StateReady}
	if !cs.transition(models.StateDisconnected, models.FailureNone, stoppedReason, live...) {
		return nil
	}
	m.report(cs)
	emitLog(m.events, slot, models.SeverityInfo, "Client stopped")

	return m.teardown(ctx, cs)
}

func (m *lifecycleManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	slots := make([]string, 0, len(m.clients))
	for slot := range m.clients {
		slots = append(slots, slot)
	}
	m.mu.Unlock()

	var errs []error
	for _, slot := range slots {
		if err := m.Stop(ctx, slot); err != nil {
			errs = append(errs, fmt.Errorf("slot %s: %w", slot, err))
		}
	}

	return errors.Join(errs...)
}

func (m *lifecycleManager) lookup(slot string) *clientSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients[slot]
}

// run consumes the session's signals until it reaches a terminal state.
func (m *lifecycleManager) run(cs *clientSession) {
	for {
		select {
		case <-cs.quit:
			return
		case <-cs.timeouts:
			if m.handle(cs, signal{timeout: true}) {
				return
			}
		case s := <-cs.signals:
			if m.handle(cs, s) {
				return
			}
		}
	}
}

// handle applies one signal and reports whether the session has ended.
func (m *lifecycleManager) handle(cs *clientSession, s signal) bool {
	if s.timeout {
		return m.fail(cs, models.FailureTimeout, ErrConnectionTimeout, models.StateAwaitingValidation)
	}

	switch s.event.Kind {
	case models.ConnectorReady:
		if !cs.transition(models.StateReady, models.FailureNone, "", models.StateAwaitingValidation) {
			return false
		}
		cs.stopTimer()
		m.report(cs)
		emitLog(m.events, cs.slot, models.SeveritySuccess, "Session is valid, client is ready")

		if err := m.info.Fetch(cs.ctx, cs.slot, cs.Connector()); err != nil {
			cs.logger.Warn().Err(err).Msg("error fetching session info")
		}
		return false

	case models.ConnectorAuthFailure:
		return m.fail(cs, models.FailureAuthInvalid, connectorCause(s.event), models.StateAwaitingValidation)

	case models.ConnectorDisconnected:
		if !cs.transition(models.StateDisconnected, models.FailureNone, s.event.Reason, models.StateAwaitingValidation, models.StateReady) {
			return false
		}
		m.report(cs)
		emitLog(m.events, cs.slot, models.SeverityWarn, "Client disconnected: "+s.event.Reason)
		m.teardown(context.Background(), cs)
		return true

	case models.ConnectorError:
		return m.fail(cs, models.FailureInternalError, connectorCause(s.event), models.StateAwaitingValidation, models.StateReady)
	}

	cs.logger.Warn().Str("kind", string(s.event.Kind)).Msg("unknown connector signal")
	return false
}

// fail moves the session from one of from to Failed(reason), reports it
// and tears the connector down.
func (m *lifecycleManager) fail(cs *clientSession, reason models.FailureReason, cause error, from ...models.SessionState) bool {
	if !cs.transition(models.StateFailed, reason, cause.Error(), from...) {
		return false
	}
	m.report(cs)

	switch reason {
	case models.FailureAuthInvalid:
		emitLog(m.events, cs.slot, models.SeverityError, "Session is invalid or expired")
		m.emitInvalidSession(cs.slot, ErrAuthInvalid)
	case models.FailureTimeout:
		emitLog(m.events, cs.slot, models.SeverityError, fmt.Sprintf("No answer within %s, giving up", m.validationTimeout))
		m.emitInvalidSession(cs.slot, ErrConnectionTimeout)
	default:
		emitLog(m.events, cs.slot, models.SeverityError, "Client failed: "+cause.Error())
	}

	m.teardown(context.Background(), cs)
	return true
}

func (m *lifecycleManager) emitInvalidSession(slot string, cause error) {
	m.events.Emit(slot, models.Event{
		Type:     models.EventInvalidSession,
		Message:  cause.Error(),
		Severity: models.SeverityError,
	})
}

// teardown ends the session and closes its connector, best effort.
func (m *lifecycleManager) teardown(ctx context.Context, cs *clientSession) error {
	cs.end()

	conn := cs.releaseConnector()
	if conn == nil {
		return nil
	}
	return m.closeConnector(ctx, cs, conn)
}

func (m *lifecycleManager) closeConnector(ctx context.Context, cs *clientSession, conn adapter.Connector) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	if err := conn.Close(ctx); err != nil {
		cs.logger.Warn().Err(err).Msg("error closing connector")
		return fmt.Errorf("error closing connector: %w", err)
	}
	return nil
}

// report publishes the current state as an event and stores it in the
// restore history. History failures are logged only.
func (m *lifecycleManager) report(cs *clientSession) {
	cs.reportMu.Lock()
	defer cs.reportMu.Unlock()

	status := cs.status()
	m.events.Emit(cs.slot, models.Event{
		Type:    models.EventState,
		Message: "state changed to " + string(status.State),
		State:   &status,
	})

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	if err := m.history.Save(ctx, cs.record()); err != nil {
		cs.logger.Error().Err(err).Str("state", string(status.State)).Msg("error saving restore history")
	}
}

func connectorCause(event models.ConnectorEvent) error {
	switch {
	case event.Err != nil:
		return event.Err
	case event.Reason != "":
		return errors.New(event.Reason)
	default:
		return errors.New(string(event.Kind))
	}
}
