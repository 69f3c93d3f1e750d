package models

// SendMessageRequest is the payload of the send-message command.
type SendMessageRequest struct {
	// Number is a phone-number-like recipient, e.g. "+1 (555) 123-4567".
	Number string `json:"number"`

	// Message is the text body.
	Message string `json:"message"`
}

// RestoreFromLinkRequest asks to restore a session from a remote archive.
type RestoreFromLinkRequest struct {
	URL string `json:"url"`
}
