package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyLayout(t *testing.T) {
	now := time.Date(2031, 3, 9, 12, 0, 0, 0, time.UTC)
	key := NewKey("north-club", "Team Photo.JPG", now)
	assert.True(t, strings.HasPrefix(key, "north-club/2031/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	assert.False(t, strings.Contains(NewKey("t", `C:\evil\..\x.png`, now), ".."))
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	for _, k := range []string{"", "/etc/passwd", "../x", "a/../../x", `a\..\..\x`} {
		_, err := CleanKey(k)
		assert.ErrorIs(t, err, ErrInvalidKey, k)
	}
	k, err := CleanKey("a/./b/c.png")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.png", k)
}

func TestLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "https://cdn.example.com/files/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, l.Put(ctx, "t/2031/03/a.txt", strings.NewReader("hello"), 5, "text/plain"))
	_, err = os.Stat(filepath.Join(dir, "t", "2031", "03", "a.txt"))
	require.NoError(t, err)

	rc, err := l.Open(ctx, "t/2031/03/a.txt")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(b))
	assert.Equal(t, "https://cdn.example.com/files/t/2031/03/a.txt", l.URL("t/2031/03/a.txt"))

	require.NoError(t, l.Delete(ctx, "t/2031/03/a.txt"))
	require.NoError(t, l.Delete(ctx, "t/2031/03/a.txt"))
	_, err = l.Open(ctx, "t/2031/03/a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalShortWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "")
	require.NoError(t, err)

	err = l.Put(context.Background(), "k/x.bin", strings.NewReader("abc"), 10, "application/octet-stream")
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(dir, "k", "x.bin"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, l.URL("k/x.bin"))
}

func TestLocalRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	err = l.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
