package token

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFileReturnsEmpty(t *testing.T) {
	s := New(t.TempDir(), "mycluster", nil)
	tok, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "", tok)
}

func TestReadReturnsCachedTrimmed(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "mycluster", nil)
	require.NoError(t, writeAtomic(filepath.Join(dir, ".mycluster.tkn"), "abcdef0123456789abcdef0123456789\n"))

	tok, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "abcdef0123456789abcdef0123456789", tok)
}

func TestTokenShapeRegexp(t *testing.T) {
	assert.True(t, tokenShape.MatchString("abcdef0123456789abcdef0123456789"))
	assert.False(t, tokenShape.MatchString("too-short"))
	assert.False(t, tokenShape.MatchString("ABCDEF0123456789ABCDEF0123456789"))
}

func TestWriteAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".c.tkn")
	require.NoError(t, writeAtomic(path, "first"))
	require.NoError(t, writeAtomic(path, "second"))

	s := New(dir, "c", nil)
	tok, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, "second", tok)
}
