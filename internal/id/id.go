// Package id generates document and descriptor identifiers.
package id

import (
	"crypto/md5" //#nosec G501 -- content addressing, not a security boundary
	"encoding/hex"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Compound returns the index document identifier for an item within an exhibit.
// It is the lowercase hex MD5 of "<exhibitID>-<itemID>", so re-ingesting the same
// pair always yields the same identifier.
func Compound(exhibitID, itemID string) string {
	sum := md5.Sum([]byte(exhibitID + "-" + itemID)) //#nosec G401 -- see import
	return hex.EncodeToString(sum[:])
}

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "fld-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

