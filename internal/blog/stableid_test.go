package blog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStableIDPrefersAssigned(t *testing.T) {
	p := &Post{LocalID: "42", SyncID: "already-assigned"}
	assert.Equal(t, "already-assigned", ResolveStableID(p))
	assert.Equal(t, "already-assigned", p.SyncID)
}

func TestResolveStableIDDerivesAndPersists(t *testing.T) {
	c := &Category{LocalID: "row/17:a"}

	id := ResolveStableID(c)
	assert.Equal(t, "row-17-a", id)
	// persisted back onto the entity, so a second resolve reuses it
	assert.Equal(t, id, c.SyncID)
	assert.Equal(t, id, ResolveStableID(c))
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"with/slash", "with-slash"},
		{"scheme://42", "scheme---42"},
		{"UPPER_case.ok-1", "UPPER_case.ok-1"},
		{"--trimmed--", "trimmed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeID(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeIDEmptyFallsBackToUUID(t *testing.T) {
	a := SanitizeID("///")
	b := SanitizeID("///")
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
