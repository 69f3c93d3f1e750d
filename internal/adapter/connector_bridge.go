package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/MKhiriev/go-session-keeper/models"
)

// Bridge client states, as reported by GET /session/status/{id}.
const (
	bridgeStateConnected = "CONNECTED"
)

var bridgeAuthFailureStates = map[string]struct{}{
	"UNPAIRED":      {},
	"UNPAIRED_IDLE": {},
	"CONFLICT":      {},
}

var bridgeFatalStates = map[string]struct{}{
	"TOS_BLOCK":          {},
	"SMB_TOS_BLOCK":      {},
	"PROXYBLOCK":         {},
	"DEPRECATED_VERSION": {},
}

type bridgeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r bridgeResponse) failure() string {
	if r.Error != "" {
		return r.Error
	}
	if r.Message != "" {
		return r.Message
	}
	return "no details"
}

type bridgeStatusResponse struct {
	bridgeResponse
	State *string `json:"state"`
}

type bridgeUser struct {
	User string `json:"user"`
}

type bridgeClassInfoResponse struct {
	bridgeResponse
	SessionInfo *struct {
		PushName string     `json:"pushname"`
		WID      bridgeUser `json:"wid"`
		Me       bridgeUser `json:"me"`
	} `json:"sessionInfo"`
}

type bridgeChat struct {
	ID struct {
		Serialized string `json:"_serialized"`
	} `json:"id"`
	Name          string `json:"name"`
	IsGroup       bool   `json:"isGroup"`
	GroupMetadata *struct {
		Participants []json.RawMessage `json:"participants"`
	} `json:"groupMetadata"`
}

type bridgeChatsResponse struct {
	bridgeResponse
	Chats []bridgeChat `json:"chats"`
}

type bridgeMessageRequest struct {
	ChatID      string `json:"chatId"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type bridgeConnectorFactory struct {
	client       *utils.HTTPClient
	pollInterval time.Duration
	logger       *logger.Logger
}

// NewBridgeConnectorFactory constructs a [ConnectorFactory] whose connectors
// drive sessions through a whatsapp-web.js REST bridge. The bridge must read
// the same sessions root the server extracts archives into.
//
// Returns an error if cfg.BridgeURL is empty or cannot be parsed as a valid URL.
func NewBridgeConnectorFactory(cfg config.Adapter, log *logger.Logger) (ConnectorFactory, error) {
	baseURL, err := normalizeBaseURL(cfg.BridgeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge url: %w", err)
	}

	client := utils.NewHTTPClient()
	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json")
	client.WithAPIKey(cfg.BridgeAPIKey)

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &bridgeConnectorFactory{client: client, pollInterval: pollInterval, logger: log}, nil
}

func (f *bridgeConnectorFactory) NewConnector(session models.ExtractedSession) (Connector, error) {
	if session.ID == "" {
		return nil, errors.New("session id is required")
	}

	return &bridgeConnector{
		client:       f.client,
		sessionID:    session.ID,
		pollInterval: f.pollInterval,
		logger:       &logger.Logger{Logger: f.logger.With().Str("session_id", session.ID).Logger()},
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// bridgeConnector polls the bridge for the client state of one session and
// turns state changes into connector events.
type bridgeConnector struct {
	client       *utils.HTTPClient
	sessionID    string
	pollInterval time.Duration
	logger       *logger.Logger

	mu        sync.RWMutex
	listeners []func(models.ConnectorEvent)
	info      *models.AccountDescriptor
	ready     bool
	closed    bool
	cancel    context.CancelFunc
}

func (c *bridgeConnector) Subscribe(fn func(models.ConnectorEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Initialize starts the session on the bridge and begins status polling. A
// session the bridge already runs is accepted as started.
func (c *bridgeConnector) Initialize(ctx context.Context) error {
	c.mu.RLock()
	started := c.cancel != nil
	c.mu.RUnlock()
	if c.isClosed() {
		return ErrConnectorClosed
	}
	if started {
		return nil
	}

	resp, err := c.client.R().SetContext(ctx).Get(c.path("/session/start/"))
	if err != nil {
		return fmt.Errorf("start session request: %w", err)
	}

	var out bridgeResponse
	if len(resp.Body()) > 0 {
		if decodeErr := json.Unmarshal(resp.Body(), &out); decodeErr != nil && resp.IsSuccess() {
			return fmt.Errorf("%w: decode start response: %w", ErrBridgeFailure, decodeErr)
		}
	}

	if err = mapHTTPError(resp); err != nil && !alreadyStarted(out) {
		if isSessionRejection(err) {
			return fmt.Errorf("%w: %w", ErrSessionRejected, err)
		}
		return err
	}
	if err == nil && !out.Success && !alreadyStarted(out) {
		return fmt.Errorf("%w: %s", ErrBridgeFailure, out.failure())
	}

	pollCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		// Close ran while the start request was in flight and had nothing
		// to terminate yet.
		if termErr := c.terminate(ctx); termErr != nil {
			c.logger.Warn().Err(termErr).Msg("failed to terminate bridge session after close")
		}
		return ErrConnectorClosed
	}
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Debug().Msg("bridge session started, polling status")
	go c.poll(pollCtx)

	return nil
}

func alreadyStarted(out bridgeResponse) bool {
	return strings.Contains(strings.ToLower(out.failure()), "already exists")
}

func (c *bridgeConnector) poll(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if stop := c.checkStatus(ctx); stop {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// checkStatus performs one status round trip and reports whether polling
// should stop.
func (c *bridgeConnector) checkStatus(ctx context.Context) bool {
	state, err := c.fetchState(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		c.logger.Warn().Err(err).Msg("bridge status request failed")
		return false
	}

	c.mu.RLock()
	ready := c.ready
	c.mu.RUnlock()

	_, authFailure := bridgeAuthFailureStates[state]
	_, fatal := bridgeFatalStates[state]

	switch {
	case state == bridgeStateConnected:
		if !ready {
			c.mu.Lock()
			c.ready = true
			c.mu.Unlock()
			c.emit(models.ConnectorEvent{Kind: models.ConnectorReady})
		}
		if c.Info() == nil {
			c.loadInfo(ctx)
		}
		return false
	case ready:
		c.emit(models.ConnectorEvent{Kind: models.ConnectorDisconnected, Reason: state})
		return true
	case authFailure:
		c.emit(models.ConnectorEvent{Kind: models.ConnectorAuthFailure, Reason: state})
		return true
	case fatal:
		c.emit(models.ConnectorEvent{
			Kind:   models.ConnectorError,
			Reason: state,
			Err:    fmt.Errorf("%w: client state %s", ErrBridgeFailure, state),
		})
		return true
	default:
		// still opening or pairing
		return false
	}
}

// fetchState returns the client state, or the bridge message when the
// bridge has no state for the session (e.g. "session_not_found").
func (c *bridgeConnector) fetchState(ctx context.Context) (string, error) {
	resp, err := c.client.R().SetContext(ctx).Get(c.path("/session/status/"))
	if err != nil {
		return "", fmt.Errorf("status request: %w", err)
	}

	var out bridgeStatusResponse
	if decodeErr := json.Unmarshal(resp.Body(), &out); decodeErr != nil {
		if err = mapHTTPError(resp); err != nil {
			return "", err
		}
		return "", fmt.Errorf("decode status response: %w", decodeErr)
	}

	if out.State != nil && *out.State != "" {
		return *out.State, nil
	}
	return out.failure(), nil
}

func (c *bridgeConnector) loadInfo(ctx context.Context) {
	resp, err := c.client.R().SetContext(ctx).Get(c.path("/client/getClassInfo/"))
	if err == nil {
		err = mapHTTPError(resp)
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("bridge class info request failed")
		return
	}

	var out bridgeClassInfoResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil || out.SessionInfo == nil {
		return
	}

	user := out.SessionInfo.WID.User
	if user == "" {
		user = out.SessionInfo.Me.User
	}

	c.mu.Lock()
	c.info = &models.AccountDescriptor{PushName: out.SessionInfo.PushName, User: user}
	c.mu.Unlock()
}

func (c *bridgeConnector) emit(event models.ConnectorEvent) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	listeners := make([]func(models.ConnectorEvent), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.RUnlock()

	c.logger.Debug().Str("kind", string(event.Kind)).Str("reason", event.Reason).Msg("connector event")
	for _, fn := range listeners {
		fn(event)
	}
}

func (c *bridgeConnector) Info() *models.AccountDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.info == nil {
		return nil
	}
	info := *c.info
	return &info
}

func (c *bridgeConnector) GetChats(ctx context.Context) ([]models.Chat, error) {
	if c.isClosed() {
		return nil, ErrConnectorClosed
	}

	resp, err := c.request(ctx).Get(c.path("/client/getChats/"))
	if err != nil {
		return nil, fmt.Errorf("get chats request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var out bridgeChatsResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode chats response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrBridgeFailure, out.failure())
	}

	chats := make([]models.Chat, 0, len(out.Chats))
	for _, ch := range out.Chats {
		chat := models.Chat{ID: ch.ID.Serialized, Name: ch.Name, IsGroup: ch.IsGroup}
		if ch.GroupMetadata != nil {
			chat.Participants = len(ch.GroupMetadata.Participants)
		}
		chats = append(chats, chat)
	}

	return chats, nil
}

func (c *bridgeConnector) SendMessage(ctx context.Context, recipient, body string) error {
	if c.isClosed() {
		return ErrConnectorClosed
	}

	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(bridgeMessageRequest{ChatID: recipient, ContentType: "string", Content: body}).
		Post(c.path("/client/sendMessage/"))
	if err != nil {
		return fmt.Errorf("send message request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	var out bridgeResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("decode send message response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrBridgeFailure, out.failure())
	}

	return nil
}

// Close stops polling and terminates the bridge session if it was started.
func (c *bridgeConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	return c.terminate(ctx)
}

func (c *bridgeConnector) terminate(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get(c.path("/session/terminate/"))
	if err != nil {
		return fmt.Errorf("terminate session request: %w", err)
	}
	return mapHTTPError(resp)
}

func (c *bridgeConnector) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *bridgeConnector) request(ctx context.Context) *resty.Request {
	return c.client.R().SetContext(ctx)
}

func (c *bridgeConnector) path(prefix string) string {
	return prefix + url.PathEscape(c.sessionID)
}
