package weblog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Infof("hello %s", "world")
	l.Errorf("boom")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "boom")
}

func TestRotatingFile_RotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.log")

	rf, err := NewRotatingFile(path, 10)
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("0123456789"))
	require.NoError(t, err)

	_, err = rf.Write([]byte("more"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "more", string(contents))
}
