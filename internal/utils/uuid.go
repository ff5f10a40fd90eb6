package utils

import "github.com/google/uuid"

// UUIDGenerator issues ids for conversations, messages and journal records.
// Version 7 ids sort by creation time, which keeps journal keys in append
// order.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate falls back to a random v4 id if the v7 clock source fails.
func (UUIDGenerator) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
