package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o600))
}

func fixedProbe(d time.Duration) Prober {
	return func(string) (time.Duration, error) { return d, nil }
}

func TestScanner_Scan_AddsUpdatesRemoves(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "artist", "01 Intro.mp3")
	b := filepath.Join(dir, "artist", "02 Song.flac")
	writeFile(t, a)
	writeFile(t, b)
	writeFile(t, filepath.Join(dir, "cover.jpg"))

	c := newTestCatalog(t)
	s := NewScanner(c, fixedProbe(2*time.Minute), zerolog.Nop())
	ctx := context.Background()

	stats, err := s.Scan(ctx, []string{dir})
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Discovered: 2, Added: 2}, stats)

	tracks, err := c.FindTracks(ctx, []uint64{TrackID(a)})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "01 Intro", tracks[0].Title, "falls back to file name without tags")
	assert.Equal(t, 2*time.Minute, tracks[0].Duration)

	// Unchanged files are skipped on rescan
	stats, err = s.Scan(ctx, []string{dir})
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Discovered: 2}, stats)

	// Touch one, delete the other
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(a, future, future))
	require.NoError(t, os.Remove(b))

	stats, err = s.Scan(ctx, []string{dir})
	require.NoError(t, err)
	assert.Equal(t, ScanStats{Discovered: 1, Updated: 1, Removed: 1}, stats)
}

func TestScanner_Scan_MissingSource(t *testing.T) {
	c := newTestCatalog(t)
	s := NewScanner(c, nil, zerolog.Nop())

	_, err := s.Scan(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})

	assert.Error(t, err)
}

func TestIsMusicFile(t *testing.T) {
	assert.True(t, IsMusicFile("/a/b.MP3"))
	assert.True(t, IsMusicFile("/a/b.flac"))
	assert.False(t, IsMusicFile("/a/b.txt"))
}

func TestFolderAuthorizer(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.mp3")
	writeFile(t, file)
	ctx := context.Background()

	assert.NoError(t, FolderAuthorizer{Sources: []string{dir}}.Authorize(ctx))
	assert.ErrorIs(t, FolderAuthorizer{}.Authorize(ctx), ErrAccessDenied)
	assert.ErrorIs(t, FolderAuthorizer{Sources: []string{file}}.Authorize(ctx), ErrAccessDenied)
	assert.ErrorIs(t, FolderAuthorizer{Sources: []string{filepath.Join(dir, "missing")}}.Authorize(ctx), ErrAccessDenied)
}
