package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestCoverArt(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "01 - song.mp3")
	touch(t, track)

	assert.Empty(t, CoverArt(track))

	touch(t, filepath.Join(dir, "front.png"))
	assert.Equal(t, filepath.Join(dir, "front.png"), CoverArt(track))

	touch(t, filepath.Join(dir, "Folder.JPG"))
	assert.Equal(t, filepath.Join(dir, "Folder.JPG"), CoverArt(track))

	touch(t, filepath.Join(dir, "cover.png"))
	assert.Equal(t, filepath.Join(dir, "cover.png"), CoverArt(track))
}

func TestCoverArt_IgnoresDirectoriesAndOtherImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cover.jpg"), 0o700))
	touch(t, filepath.Join(dir, "scan.jpg"))

	assert.Empty(t, CoverArt(filepath.Join(dir, "track.flac")))
}

func TestCoverArt_MissingDirectory(t *testing.T) {
	assert.Empty(t, CoverArt("/does/not/exist/track.mp3"))
}
