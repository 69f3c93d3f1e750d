// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBridge is a scripted whatsapp-web.js REST bridge.
type fakeBridge struct {
	mu          sync.Mutex
	states      []string // consumed one per status request, last one sticks
	startStatus int
	startBody   string
	terminated  atomic.Int32
	lastMessage bridgeMessageRequest
	apiKeys     []string
	onStart     func()
}

func (b *fakeBridge) nextState() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.states) == 0 {
		return "OPENING"
	}
	state := b.states[0]
	if len(b.states) > 1 {
		b.states = b.states[1:]
	}
	return state
}

func (b *fakeBridge) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/session/start/abc", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.apiKeys = append(b.apiKeys, r.Header.Get("x-api-key"))
		status, body, hook := b.startStatus, b.startBody, b.onStart
		b.mu.Unlock()
		if hook != nil {
			hook()
		}
		if status == 0 {
			status, body = http.StatusOK, `{"success":true,"message":"Session initiation is in progress"}`
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/session/status/abc", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "state": b.nextState()})
	})
	mux.HandleFunc("/client/getClassInfo/abc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"sessionInfo":{"pushname":"Alice","wid":{"user":"15550001111"}}}`))
	})
	mux.HandleFunc("/client/getChats/abc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"chats":[
			{"id":{"_serialized":"120363@g.us"},"name":"Team","isGroup":true,"groupMetadata":{"participants":[{},{},{}]}},
			{"id":{"_serialized":"1555@c.us"},"name":"Bob","isGroup":false},
			{"id":{"_serialized":"999@g.us"},"name":"Bare","isGroup":true}
		]}`))
	})
	mux.HandleFunc("/client/sendMessage/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req bridgeMessageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		b.mu.Lock()
		b.lastMessage = req
		b.mu.Unlock()
		if req.Content == "fail" {
			_, _ = w.Write([]byte(`{"success":false,"error":"chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"message":{}}`))
	})
	mux.HandleFunc("/session/terminate/abc", func(w http.ResponseWriter, r *http.Request) {
		b.terminated.Add(1)
		_, _ = w.Write([]byte(`{"success":true,"message":"Logged out successfully"}`))
	})

	return mux
}

func newTestConnector(t *testing.T, bridge *fakeBridge) (Connector, chan models.ConnectorEvent) {
	t.Helper()
	srv := httptest.NewServer(bridge.handler(t))
	t.Cleanup(srv.Close)

	factory, err := NewBridgeConnectorFactory(config.Adapter{
		BridgeURL:      srv.URL,
		BridgeAPIKey:   "secret",
		RequestTimeout: time.Second,
		PollInterval:   10 * time.Millisecond,
	}, logger.Nop())
	require.NoError(t, err)

	conn, err := factory.NewConnector(models.ExtractedSession{ID: "abc"})
	require.NoError(t, err)

	events := make(chan models.ConnectorEvent, 8)
	conn.Subscribe(func(e models.ConnectorEvent) { events <- e })

	t.Cleanup(func() { _ = conn.Close(context.Background()) })
	return conn, events
}

func waitEvent(t *testing.T, events <-chan models.ConnectorEvent) models.ConnectorEvent {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no connector event received")
		return models.ConnectorEvent{}
	}
}

func TestNewBridgeConnectorFactory_InvalidURL(t *testing.T) {
	_, err := NewBridgeConnectorFactory(config.Adapter{BridgeURL: "  "}, logger.Nop())
	assert.Error(t, err)
}

func TestNewConnector_RequiresSessionID(t *testing.T) {
	factory, err := NewBridgeConnectorFactory(config.Adapter{BridgeURL: "localhost:3000"}, logger.Nop())
	require.NoError(t, err)

	_, err = factory.NewConnector(models.ExtractedSession{})
	assert.Error(t, err)
}

func TestBridgeConnector_ReadyAndInfo(t *testing.T) {
	bridge := &fakeBridge{states: []string{"OPENING", "CONNECTED"}}
	conn, events := newTestConnector(t, bridge)

	require.NoError(t, conn.Initialize(context.Background()))

	e := waitEvent(t, events)
	assert.Equal(t, models.ConnectorReady, e.Kind)

	require.Eventually(t, func() bool { return conn.Info() != nil }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, &models.AccountDescriptor{PushName: "Alice", User: "15550001111"}, conn.Info())

	bridge.mu.Lock()
	assert.Equal(t, []string{"secret"}, bridge.apiKeys)
	bridge.mu.Unlock()
}

func TestBridgeConnector_Initialize_Rejected(t *testing.T) {
	bridge := &fakeBridge{startStatus: http.StatusNotFound, startBody: `{"success":false,"error":"session not found"}`}
	conn, _ := newTestConnector(t, bridge)

	err := conn.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrSessionRejected)
}

func TestBridgeConnector_Initialize_AlreadyExists(t *testing.T) {
	bridge := &fakeBridge{
		startStatus: http.StatusInternalServerError,
		startBody:   `{"success":false,"error":"Session already exists for: abc"}`,
		states:      []string{"CONNECTED"},
	}
	conn, events := newTestConnector(t, bridge)

	require.NoError(t, conn.Initialize(context.Background()))
	assert.Equal(t, models.ConnectorReady, waitEvent(t, events).Kind)
}

func TestBridgeConnector_Initialize_ServerError(t *testing.T) {
	bridge := &fakeBridge{startStatus: http.StatusInternalServerError, startBody: `{"success":false,"error":"browser crashed"}`}
	conn, _ := newTestConnector(t, bridge)

	err := conn.Initialize(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionRejected)
	assert.ErrorIs(t, err, ErrInternalServerError)
}

func TestBridgeConnector_Initialize_MalformedResponse(t *testing.T) {
	bridge := &fakeBridge{startStatus: http.StatusOK, startBody: `<html>bad gateway</html>`}
	conn, _ := newTestConnector(t, bridge)

	err := conn.Initialize(context.Background())
	require.ErrorIs(t, err, ErrBridgeFailure)
	assert.Contains(t, err.Error(), "decode start response")
}

func TestBridgeConnector_CloseDuringStartTerminatesSession(t *testing.T) {
	bridge := &fakeBridge{}
	conn, _ := newTestConnector(t, bridge)

	bridge.mu.Lock()
	bridge.onStart = func() { _ = conn.Close(context.Background()) }
	bridge.mu.Unlock()

	err := conn.Initialize(context.Background())
	require.ErrorIs(t, err, ErrConnectorClosed)
	assert.Equal(t, int32(1), bridge.terminated.Load())
}

func TestBridgeConnector_StateMapping(t *testing.T) {
	tests := []struct {
		name       string
		states     []string
		wantKinds  []models.ConnectorEventKind
		wantReason string
	}{
		{name: "unpaired", states: []string{"UNPAIRED"}, wantKinds: []models.ConnectorEventKind{models.ConnectorAuthFailure}, wantReason: "UNPAIRED"},
		{name: "conflict", states: []string{"OPENING", "CONFLICT"}, wantKinds: []models.ConnectorEventKind{models.ConnectorAuthFailure}, wantReason: "CONFLICT"},
		{name: "tos block", states: []string{"TOS_BLOCK"}, wantKinds: []models.ConnectorEventKind{models.ConnectorError}, wantReason: "TOS_BLOCK"},
		{name: "disconnect after ready", states: []string{"CONNECTED", "CONNECTED", "UNLAUNCHED"}, wantKinds: []models.ConnectorEventKind{models.ConnectorReady, models.ConnectorDisconnected}, wantReason: "UNLAUNCHED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := &fakeBridge{states: tt.states}
			conn, events := newTestConnector(t, bridge)

			require.NoError(t, conn.Initialize(context.Background()))

			var last models.ConnectorEvent
			for _, kind := range tt.wantKinds {
				last = waitEvent(t, events)
				assert.Equal(t, kind, last.Kind)
			}
			assert.Equal(t, tt.wantReason, last.Reason)

			// polling stops after a terminal signal
			select {
			case extra := <-events:
				t.Fatalf("unexpected event after terminal signal: %+v", extra)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestBridgeConnector_GetChats(t *testing.T) {
	conn, _ := newTestConnector(t, &fakeBridge{})

	chats, err := conn.GetChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 3)

	assert.Equal(t, models.Chat{ID: "120363@g.us", Name: "Team", IsGroup: true, Participants: 3}, chats[0])
	assert.False(t, chats[1].IsGroup)
	assert.Equal(t, 0, chats[2].Participants)
}

func TestBridgeConnector_SendMessage(t *testing.T) {
	bridge := &fakeBridge{}
	conn, _ := newTestConnector(t, bridge)

	require.NoError(t, conn.SendMessage(context.Background(), "15551234567@c.us", "hello"))

	bridge.mu.Lock()
	assert.Equal(t, bridgeMessageRequest{ChatID: "15551234567@c.us", ContentType: "string", Content: "hello"}, bridge.lastMessage)
	bridge.mu.Unlock()

	err := conn.SendMessage(context.Background(), "15551234567@c.us", "fail")
	assert.ErrorIs(t, err, ErrBridgeFailure)
}

func TestBridgeConnector_Close(t *testing.T) {
	bridge := &fakeBridge{}
	conn, _ := newTestConnector(t, bridge)

	require.NoError(t, conn.Initialize(context.Background()))
	require.NoError(t, conn.Close(context.Background()))
	require.NoError(t, conn.Close(context.Background()))

	assert.Equal(t, int32(1), bridge.terminated.Load())

	_, err := conn.GetChats(context.Background())
	assert.ErrorIs(t, err, ErrConnectorClosed)
	assert.ErrorIs(t, conn.SendMessage(context.Background(), "1@c.us", "x"), ErrConnectorClosed)
	assert.ErrorIs(t, conn.Initialize(context.Background()), ErrConnectorClosed)
}

func TestBridgeConnector_CloseBeforeInitialize(t *testing.T) {
	bridge := &fakeBridge{}
	conn, _ := newTestConnector(t, bridge)

	require.NoError(t, conn.Close(context.Background()))
	assert.Equal(t, int32(0), bridge.terminated.Load())
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "localhost:3000", want: "http://localhost:3000"},
		{in: "https://bridge.example.com/", want: "https://bridge.example.com"},
		{in: "", wantErr: true},
		{in: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
