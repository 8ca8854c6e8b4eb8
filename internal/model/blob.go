package model

import "time"

// Blob is one persisted store, keyed by logical store name.
type Blob struct {
	Name      string `gorm:"primaryKey"`
	Data      []byte
	UpdatedAt time.Time
}
