package models

// AccountInfo identifies the messaging account behind a ready session.
type AccountInfo struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// GroupSummary is a best-effort projection of a group chat.
type GroupSummary struct {
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

// SessionInfo is the payload of the session-info event. It is only emitted
// when at least one group was found; zero groups produce a no-groups event.
type SessionInfo struct {
	AccountName   string         `json:"account_name"`
	AccountNumber string         `json:"account_number"`
	Groups        []GroupSummary `json:"groups"`
}
