package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyRecipient   = errors.New("recipient number is required")
	ErrInvalidRecipient = errors.New("recipient number has no digits")
	ErrEmptyMessage     = errors.New("message body is required")
	ErrEmptyURL         = errors.New("archive url is required")
	ErrInvalidURL       = errors.New("archive url must be an absolute http(s) url")
)
