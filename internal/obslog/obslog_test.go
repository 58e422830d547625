package obslog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestBuildWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkers.log")
	l, err := Build(Options{Level: "debug", ToFile: true, FilePath: path, Format: "json"})
	require.NoError(t, err)
	l.Info("checkers_move")
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"checkers_move"`)
}

func TestReplaceRestores(t *testing.T) {
	orig := L()
	l, err := Build(Options{Level: "warn", Console: true})
	require.NoError(t, err)
	restore := Replace(l)
	assert.Same(t, l, L())
	restore()
	assert.Same(t, orig, L())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}
