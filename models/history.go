// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// RestoreRecord is a persisted trace of one restore attempt and the last
// lifecycle state its client session reached.
type RestoreRecord struct {
	ID        string        `json:"id"`
	Slot      string        `json:"slot"`
	SessionID string        `json:"session_id"`
	Source    string        `json:"source"`
	State     SessionState  `json:"state"`
	Reason    FailureReason `json:"reason,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
