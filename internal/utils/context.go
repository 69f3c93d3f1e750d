// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys, id generation,
// HTTP response writing and HTTP client initialization.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// SlotCtxKey is the key used to store the client slot a request targets.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.SlotCtxKey, "main")
var SlotCtxKey = contextKey("slot")

// GetSlotFromContext retrieves the client slot from the context.
//
// Returns the slot and an ok flag:
//   - ok == true  - value is found, is a string and is not empty
//   - ok == false - value is missing or has an unexpected type
func GetSlotFromContext(ctx context.Context) (string, bool) {
	slot, ok := ctx.Value(SlotCtxKey).(string)
	return slot, ok && slot != ""
}

// WithSlot returns a copy of ctx carrying slot.
func WithSlot(ctx context.Context, slot string) context.Context {
	return context.WithValue(ctx, SlotCtxKey, slot)
}
