package blog

import (
	"strings"

	"github.com/google/uuid"
)

// SyncEntity is implemented by every entity that carries a stable sync id.
// The stable id is the portable identity of an entity across replicas; the
// local key is whatever the local content store uses internally.
type SyncEntity interface {
	StableID() string
	SetStableID(id string)
	LocalKey() string
}

// ResolveStableID returns the authoritative sync id for e. An id already
// assigned by a prior export or import always wins verbatim; otherwise one is
// derived from the local store key, sanitized into a path-safe token, and
// persisted onto the entity so every later export reuses it.
func ResolveStableID(e SyncEntity) string {
	if id := e.StableID(); id != "" {
		return id
	}
	id := SanitizeID(e.LocalKey())
	e.SetStableID(id)
	return id
}

// SanitizeID reduces a raw local identifier to a token safe for use as a file
// name and URL path segment. Anything outside [a-zA-Z0-9._-] is replaced, and
// an identifier with nothing salvageable falls back to a fresh uuid.
func SanitizeID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	id := strings.Trim(b.String(), "-.")
	if id == "" {
		return uuid.NewString()
	}
	return id
}
