package tags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "tags"))
	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.AllTags)
	assert.Empty(t, doc.SessionTags("any"))
}

func TestAddToTargetsIsUnion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions", "tags")
	s := NewStore(path)

	_, err := s.AddToTargets("turn", []string{"a.jpg", "b.jpg"})
	require.NoError(t, err)
	doc, err := s.AddToTargets("turn", []string{"a.jpg"})
	require.NoError(t, err)
	doc, err = s.AddToTargets("crash", []string{"a.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []string{"crash", "turn"}, doc.Targets["a.jpg"])
	assert.Equal(t, []string{"turn"}, doc.Targets["b.jpg"])

	reloaded, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, doc.Targets, reloaded.Targets)
}

func TestRemoveFromSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags")
	require.NoError(t, os.WriteFile(path, []byte(`{"all_tags":["good","bad"],"sessions":{"s1":["good","bad"]}}`), 0o644))
	s := NewStore(path)

	doc, err := s.RemoveFromSession("s1", "bad")
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, doc.SessionTags("s1"))
	assert.Equal(t, []string{"good", "bad"}, doc.AllTags)

	doc, err = s.RemoveFromSession("s1", "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, doc.SessionTags("s1"))
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}
