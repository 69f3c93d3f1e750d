// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"testing"

	"github.com/MKhiriev/go-session-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestValidator(t *testing.T) {
	v := NewRequestValidator()
	require.NotNil(t, v)
}

func TestValidate_Dispatch(t *testing.T) {
	v := NewRequestValidator()
	ctx := context.Background()

	t.Run("unsupported type", func(t *testing.T) {
		err := v.Validate(ctx, "a string")
		require.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("SendMessageRequest value", func(t *testing.T) {
		err := v.Validate(ctx, models.SendMessageRequest{Number: "15551234567", Message: "hi"})
		require.NoError(t, err)
	})

	t.Run("SendMessageRequest pointer", func(t *testing.T) {
		err := v.Validate(ctx, &models.SendMessageRequest{Number: "15551234567", Message: "hi"})
		require.NoError(t, err)
	})

	t.Run("RestoreFromLinkRequest value", func(t *testing.T) {
		err := v.Validate(ctx, models.RestoreFromLinkRequest{URL: "https://example.com/s.zip"})
		require.NoError(t, err)
	})

	t.Run("RestoreFromLinkRequest pointer", func(t *testing.T) {
		err := v.Validate(ctx, &models.RestoreFromLinkRequest{URL: "http://example.com/s.zip"})
		require.NoError(t, err)
	})
}

func TestValidateSendMessage(t *testing.T) {
	v := NewRequestValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.SendMessageRequest
		fields  []string
		wantErr error
	}{
		{name: "valid", req: models.SendMessageRequest{Number: "+1 (555) 123-4567", Message: "hello"}},
		{name: "empty number", req: models.SendMessageRequest{Message: "hello"}, wantErr: ErrEmptyRecipient},
		{name: "blank number", req: models.SendMessageRequest{Number: "   ", Message: "hello"}, wantErr: ErrEmptyRecipient},
		{name: "number without digits", req: models.SendMessageRequest{Number: "abc", Message: "hello"}, wantErr: ErrInvalidRecipient},
		{name: "empty message", req: models.SendMessageRequest{Number: "15551234567"}, wantErr: ErrEmptyMessage},
		{name: "only number scoped", req: models.SendMessageRequest{Number: "1"}, fields: []string{FieldNumber}},
		{name: "unknown field", req: models.SendMessageRequest{Number: "1", Message: "x"}, fields: []string{"body"}, wantErr: ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.req, tt.fields...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateRestoreFromLink(t *testing.T) {
	v := NewRequestValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https", url: "https://files.example.com/session.zip"},
		{name: "empty", url: "", wantErr: ErrEmptyURL},
		{name: "relative", url: "/session.zip", wantErr: ErrInvalidURL},
		{name: "ftp scheme", url: "ftp://example.com/session.zip", wantErr: ErrInvalidURL},
		{name: "garbage", url: "://", wantErr: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, models.RestoreFromLinkRequest{URL: tt.url})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNormalizeRecipient(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "+1 (555) 123-4567", want: "15551234567@c.us"},
		{input: "79001234567", want: "79001234567@c.us"},
		{input: "  49-30 / 123 ", want: "4930123@c.us"},
		{input: "abc", wantErr: true},
		{input: "+()-", wantErr: true},
		{input: "٣٤٥", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeRecipient(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecipient)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
