package canonical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wirePost struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published *string  `json:"published"`
	Tags      []string `json:"tags"`
	Ordering  int      `json:"ordering"`
}

func TestMarshalSortsKeys(t *testing.T) {
	data, err := Marshal(wirePost{ID: "p1", Title: "Hello", Tags: []string{"a"}, Ordering: 3})
	require.NoError(t, err)

	// Struct field order is id, title, published, tags, ordering; canonical
	// output must be key-sorted regardless.
	assert.Equal(t, `{"id":"p1","ordering":3,"published":null,"tags":["a"],"title":"Hello"}`, string(data))
}

func TestMarshalExplicitNull(t *testing.T) {
	data, err := Marshal(wirePost{ID: "p1"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"published":null`)
}

func TestMarshalNoHTMLEscape(t *testing.T) {
	data, err := Marshal(map[string]string{"content": "<p>a & b</p>"})
	require.NoError(t, err)
	assert.Equal(t, `{"content":"<p>a & b</p>"}`, string(data))
}

func TestHashDeterministic(t *testing.T) {
	v := wirePost{ID: "p1", Title: "Hello", Tags: []string{"x", "y"}}

	_, h1, err := HashValue(v)
	require.NoError(t, err)
	_, h2, err := HashValue(v)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashEqualForEquivalentRepresentations(t *testing.T) {
	// A typed struct and an untyped map with the same logical fields must
	// produce the same digest. This is the cross-implementation guarantee.
	asStruct := wirePost{ID: "p1", Title: "Hello", Tags: []string{"a"}, Ordering: 1}
	asMap := map[string]any{
		"title":     "Hello",
		"id":        "p1",
		"ordering":  1,
		"tags":      []string{"a"},
		"published": nil,
	}

	_, h1, err := HashValue(asStruct)
	require.NoError(t, err)
	_, h2, err := HashValue(asMap)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestContentVersionOrderIndependent(t *testing.T) {
	a := map[string]string{
		"posts/p1.json":      "aaa",
		"categories/c1.json": "bbb",
		"manifest-less.json": "ccc",
	}
	b := map[string]string{
		"manifest-less.json": "ccc",
		"categories/c1.json": "bbb",
		"posts/p1.json":      "aaa",
	}
	assert.Equal(t, ContentVersion(a), ContentVersion(b))
}

func TestContentVersionChangesWithContent(t *testing.T) {
	a := map[string]string{"posts/p1.json": "aaa"}
	b := map[string]string{"posts/p1.json": "aab"}
	assert.NotEqual(t, ContentVersion(a), ContentVersion(b))
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.FixedZone("CET", 3600))

	s := FormatTime(now)
	assert.Equal(t, "2025-03-14T08:26:53Z", s)

	parsed, err := ParseTime(s)
	require.NoError(t, err)
	assert.Equal(t, s, FormatTime(parsed))
}

func TestTimePtrNilStaysNil(t *testing.T) {
	assert.Nil(t, FormatTimePtr(nil))

	parsed, err := ParseTimePtr(nil)
	require.NoError(t, err)
	assert.Nil(t, parsed)
}
