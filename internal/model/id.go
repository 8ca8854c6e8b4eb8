package model

import "github.com/google/uuid"

// NewID returns an opaque, globally unique entity id.
func NewID() string {
	return uuid.NewString()
}
