package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillbox/quillbox/internal/blog"
)

func TestMapRegistry(t *testing.T) {
	reg := NewMapRegistry(&blog.Theme{Identifier: "dark", Name: "Dark"})

	assert.Equal(t, "Dark", reg.Get("dark").Name)
	assert.Nil(t, reg.Get("missing"))

	reg.Add(&blog.Theme{Identifier: "dark", Name: "Darker"})
	assert.Equal(t, "Darker", reg.Get("dark").Name)
}

func TestDirRegistryRoundTrip(t *testing.T) {
	reg := NewDirRegistry(t.TempDir())

	assert.Nil(t, reg.Get("solar"))

	reg.Add(&blog.Theme{
		Identifier: "solar",
		Name:       "Solarized",
		Templates:  map[string]string{"post": "<article>{{.Content}}</article>"},
		Styles:     "body { color: #657b83; }",
	})

	got := reg.Get("solar")
	assert.NotNil(t, got)
	assert.Equal(t, "Solarized", got.Name)
	assert.Equal(t, "<article>{{.Content}}</article>", got.Templates["post"])

	// a second registry over the same dir sees the persisted theme
	again := NewDirRegistry(reg.dir)
	assert.NotNil(t, again.Get("solar"))
}
