// Package id generates identifiers for pages and items.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes of generated page IDs.
const (
	PagePrefix = "pg"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "pg-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewPageID returns a fresh page ID.
func NewPageID() (string, error) {
	return Generate(PagePrefix)
}

// NewItemID returns a time-ordered UUID for an item, so items created
// later sort after earlier ones when ordered by id.
func NewItemID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return u.String(), nil
}
