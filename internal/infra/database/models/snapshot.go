package models

import "time"

// Snapshot is the last-known-good payload for one backend query,
// keyed by operation and variables.
type Snapshot struct {
	Key       string    `json:"key" gorm:"primaryKey;type:text"`
	Payload   string    `json:"payload" gorm:"type:json"`
	UpdatedAt time.Time `json:"updatedAt"`
}
