package validators

import (
	"context"
	"net/url"
	"strings"
	"unicode"

	"github.com/MKhiriev/go-session-keeper/models"
)

// ContactSuffix is appended to a digits-only number to form a direct chat id.
const ContactSuffix = "@c.us"

// Field name constants used to scope validation to a subset of fields.
const (
	// FieldNumber targets the recipient phone number of a send command.
	FieldNumber = "number"

	// FieldMessage targets the text body of a send command.
	FieldMessage = "message"

	// FieldURL targets the archive location of a restore-from-link request.
	FieldURL = "url"
)

// RequestValidator implements the Validator interface for the inbound
// commands: SendMessageRequest and RestoreFromLinkRequest.
type RequestValidator struct {
}

// NewRequestValidator constructs a new RequestValidator and returns it as
// the Validator interface.
func NewRequestValidator() Validator {
	return &RequestValidator{}
}

// Validate dispatches validation to the type-specific method. Both value and
// pointer forms of each supported model are accepted.
//
// Returns ErrUnsupportedType if obj does not match any known model.
func (v *RequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.SendMessageRequest:
		return v.validateSendMessage(ctx, value, fields...)
	case *models.SendMessageRequest:
		return v.validateSendMessage(ctx, *value, fields...)

	case models.RestoreFromLinkRequest:
		return v.validateRestoreFromLink(ctx, value, fields...)
	case *models.RestoreFromLinkRequest:
		return v.validateRestoreFromLink(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateSendMessage checks that number and message are present and that the
// number still carries digits once formatting characters are stripped.
func (v *RequestValidator) validateSendMessage(ctx context.Context, req models.SendMessageRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldNumber, FieldMessage}
	}

	for _, f := range fields {
		switch f {
		case FieldNumber:
			if strings.TrimSpace(req.Number) == "" {
				return ErrEmptyRecipient
			}
			if _, err := NormalizeRecipient(req.Number); err != nil {
				return err
			}
		case FieldMessage:
			if req.Message == "" {
				return ErrEmptyMessage
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RequestValidator) validateRestoreFromLink(ctx context.Context, req models.RestoreFromLinkRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldURL}
	}

	for _, f := range fields {
		switch f {
		case FieldURL:
			if strings.TrimSpace(req.URL) == "" {
				return ErrEmptyURL
			}
			u, err := url.Parse(req.URL)
			if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
				return ErrInvalidURL
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// NormalizeRecipient strips every non-digit character from number and
// appends ContactSuffix. A number without digits yields ErrInvalidRecipient.
//
//	NormalizeRecipient("+1 (555) 123-4567") // "15551234567@c.us"
func NormalizeRecipient(number string) (string, error) {
	var b strings.Builder
	b.Grow(len(number) + len(ContactSuffix))
	for _, r := range number {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "", ErrInvalidRecipient
	}

	b.WriteString(ContactSuffix)
	return b.String(), nil
}
