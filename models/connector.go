package models

// Chat is the connector's projection of a conversation.
type Chat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`

	// Participants is the number of group members, 0 when unknown.
	Participants int `json:"participants"`
}

// AccountDescriptor is the readiness descriptor a connector exposes once the
// remote side attached the account data.
type AccountDescriptor struct {
	PushName string `json:"push_name"`
	User     string `json:"user"`
}

// ConnectorEventKind is the kind of an asynchronous connector signal.
type ConnectorEventKind string

const (
	ConnectorReady        ConnectorEventKind = "ready"
	ConnectorAuthFailure  ConnectorEventKind = "auth_failure"
	ConnectorDisconnected ConnectorEventKind = "disconnected"
	ConnectorError        ConnectorEventKind = "error"
)

// ConnectorEvent is a signal delivered by a connector to its subscribers.
type ConnectorEvent struct {
	Kind   ConnectorEventKind
	Reason string
	Err    error
}
