package msgcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	s, err := c.Render("error.invalid_selection", map[string]any{"PieceID": 99})
	require.NoError(t, err)
	assert.Equal(t, "Piece 99 is not on the board.", s)

	_, err = c.Render("error.invalid_selection", map[string]any{})
	assert.Error(t, err, "missing key must fail")
	assert.Equal(t, "fallback", c.RenderOr("error.nope", nil, "fallback"))
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("error:\n  internal: \"boom\"\n"), 0o644))
	c, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, "boom", c.RenderOr("error.internal", nil, ""))
}

func TestOverrideDuplicateKeysRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("error:\n  internal: a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("error:\n  internal: b\n"), 0o644))
	_, err := New(dir)
	assert.Error(t, err)
}

func TestNonStringLeafRejected(t *testing.T) {
	_, err := flattenMessages([]byte("error:\n  code: 5\n"))
	assert.Error(t, err)
	_, err = flattenMessages([]byte("error:\n  - a\n"))
	assert.Error(t, err)
}

func TestFlattenNested(t *testing.T) {
	flat, err := flattenMessages([]byte("a:\n  b:\n    c: x\n  d: \"y\"\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.b.c": "x", "a.d": "y"}, flat)
}

func TestBadTemplateRejectedOnLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("error:\n  internal: \"{{.Broken\"\n"), 0o644))
	_, err := New(dir)
	assert.Error(t, err)
}

func TestMissingOverrideDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
