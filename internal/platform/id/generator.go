package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for ledger, failure, claim and job run rows.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues time-ordered UUIDv7 strings so append-only tables stay roughly insertion ordered.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid v7: %w", err)
	}

	return v.String(), nil
}
