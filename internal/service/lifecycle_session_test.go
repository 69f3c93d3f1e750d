package service

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/mock"
	"github.com/MKhiriev/go-session-keeper/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestClientSession_TimeoutSurvivesFullSignalBuffer(t *testing.T) {
	cs := newClientSession(testSlot, testSession, "record-1", logger.Nop())
	defer cs.end()

	// Nothing consumes the buffer, so the extra events are dropped.
	for i := 0; i < signalBuffer+4; i++ {
		cs.onConnectorEvent(models.ConnectorEvent{Kind: models.ConnectorError, Reason: "flapping"})
	}
	assert.Len(t, cs.signals, signalBuffer)

	cs.armTimer(time.Millisecond)

	select {
	case <-cs.timeouts:
	case <-time.After(waitFor):
		t.Fatal("validation timeout was not delivered")
	}
}

func TestClientSession_ConnectorAfterEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mock.NewMockConnector(ctrl)

	cs := newClientSession(testSlot, testSession, "record-1", logger.Nop())
	assert.Nil(t, cs.releaseConnector())

	assert.False(t, cs.setConnector(conn), "released session must not take a connector")
	assert.Nil(t, cs.Connector())
}

func TestClientSession_ConnectorReleasedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mock.NewMockConnector(ctrl)

	cs := newClientSession(testSlot, testSession, "record-1", logger.Nop())
	assert.True(t, cs.setConnector(conn))

	assert.Same(t, conn, cs.releaseConnector())
	assert.Nil(t, cs.releaseConnector())
}

func TestClientSession_SetConnectorOutsideInitializing(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mock.NewMockConnector(ctrl)

	cs := newClientSession(testSlot, testSession, "record-1", logger.Nop())
	assert.True(t, cs.transition(models.StateDisconnected, models.FailureNone, stoppedReason, models.StateInitializing))

	assert.False(t, cs.setConnector(conn))
	assert.Nil(t, cs.Connector())
}
