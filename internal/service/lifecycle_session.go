// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/models"
)

// signalBuffer holds connector signals that arrive before the session
// goroutine starts consuming them.
const signalBuffer = 16

// signal is one message on a client session's channel: either a connector
// event or the expiry of the validation timer.
type signal struct {
	event   models.ConnectorEvent
	timeout bool
}

// clientSession is one instance of the lifecycle state machine. Its state
// only changes through transition, so the loser of a race between the
// validation timer and a connector signal is a no-op.
type clientSession struct {
	slot     string
	session  models.ExtractedSession
	recordID string
	created  time.Time

	ctx    context.Context
	cancel context.CancelFunc

	signals  chan signal
	timeouts chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	logger *logger.Logger

	// reportMu orders state events and history writes of this session.
	reportMu sync.Mutex

	mu        sync.Mutex
	connector adapter.Connector
	released  bool
	state     models.SessionState
	reason    models.FailureReason
	detail    string
	since     time.Time
	timer     *time.Timer
}

func newClientSession(slot string, session models.ExtractedSession, recordID string, log *logger.Logger) *clientSession {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	return &clientSession{
		slot:     slot,
		session:  session,
		recordID: recordID,
		created:  now,
		ctx:      ctx,
		cancel:   cancel,
		signals:  make(chan signal, signalBuffer),
		timeouts: make(chan struct{}, 1),
		quit:     make(chan struct{}),
		logger:   log.ForSlot(slot, session.ID),
		state:    models.StateInitializing,
		since:    now,
	}
}

// transition moves the session to `to` when its current state is one of
// from and reports whether it did.
func (c *clientSession) transition(to models.SessionState, reason models.FailureReason, detail string, from ...models.SessionState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(from, c.state) {
		return false
	}

	c.state = to
	c.reason = reason
	c.detail = detail
	c.since = time.Now()
	return true
}

func (c *clientSession) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *clientSession) status() models.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return models.SessionStatus{
		Slot:      c.slot,
		SessionID: c.session.ID,
		State:     c.state,
		Reason:    c.reason,
		Detail:    c.detail,
		Since:     c.since,
	}
}

func (c *clientSession) record() models.RestoreRecord {
	st := c.status()
	return models.RestoreRecord{
		ID:        c.recordID,
		Slot:      c.slot,
		SessionID: c.session.ID,
		Source:    c.session.Source.String(),
		State:     st.State,
		Reason:    st.Reason,
		CreatedAt: c.created,
		UpdatedAt: st.Since,
	}
}

// setConnector attaches conn while the session is still Initializing and
// reports whether it did. A false result leaves closing conn to the caller.
func (c *clientSession) setConnector(conn adapter.Connector) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != models.StateInitializing || c.released {
		return false
	}
	c.connector = conn
	return true
}

// releaseConnector hands the connector out for closing exactly once. Later
// calls and setConnector after it get nothing.
func (c *clientSession) releaseConnector() adapter.Connector {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil
	}
	c.released = true
	return c.connector
}

func (c *clientSession) Connector() adapter.Connector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connector
}

// armTimer schedules a timeout signal after d. The timeout has its own
// channel so a full signal buffer cannot swallow it.
func (c *clientSession) armTimer(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = time.AfterFunc(d, func() {
		select {
		case c.timeouts <- struct{}{}:
		default:
		}
	})
}

func (c *clientSession) stopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

// onConnectorEvent is the subscription handed to the connector.
func (c *clientSession) onConnectorEvent(event models.ConnectorEvent) {
	c.post(signal{event: event})
}

// post never blocks: once the session has ended its signals are discarded.
func (c *clientSession) post(s signal) {
	select {
	case <-c.quit:
		return
	default:
	}

	select {
	case c.signals <- s:
	case <-c.quit:
	default:
		c.logger.Warn().Str("kind", string(s.event.Kind)).Msg("signal buffer full, dropping signal")
	}
}

// end stops signal delivery and cancels the work bound to the session.
func (c *clientSession) end() {
	c.quitOnce.Do(func() {
		c.stopTimer()
		c.cancel()
		close(c.quit)
	})
}
