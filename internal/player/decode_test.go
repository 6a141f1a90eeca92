package player

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSilence writes a 44.1kHz stereo WAV file of length d.
func writeSilence(t *testing.T, path string, d time.Duration) {
	t.Helper()
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, wav.Encode(f, beep.Silence(format.SampleRate.N(d)), format))
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.wav", true},
		{"song.ogg", true},
		{"song.m4a", false},
		{"cover.jpg", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.path))
		})
	}
}

func TestProbeDuration_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.wav")
	writeSilence(t, path, time.Second)

	d, err := ProbeDuration(path)

	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestProbeDuration_Unsupported(t *testing.T) {
	_, err := ProbeDuration("/music/track.m4a")

	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestBeepFactory_NewWithoutSpeaker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.wav")
	writeSilence(t, path, 2*time.Second)

	res, err := NewBeepFactory(1.5).New(path)
	require.NoError(t, err)
	defer res.Stop()

	assert.Equal(t, 2*time.Second, res.Duration())
	assert.InDelta(t, 1.0, res.Volume(), 0)
	assert.False(t, res.IsPlaying())
	assert.False(t, res.IsPaused())

	res.SetVolume(0.25)
	assert.InDelta(t, 0.25, res.Volume(), 0)
}

func TestBeepFactory_MissingFile(t *testing.T) {
	_, err := NewBeepFactory(1).New(filepath.Join(t.TempDir(), "missing.flac"))

	assert.Error(t, err)
}

func TestSkipID3v2(t *testing.T) {
	tag := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 5, 1, 2, 3, 4, 5}
	r := bytes.NewReader(append(tag, []byte("fLaC")...))

	require.NoError(t, skipID3v2(r))
	rest, _ := io.ReadAll(r)
	assert.Equal(t, "fLaC", string(rest))
}

func TestSkipID3v2_NoTag(t *testing.T) {
	r := bytes.NewReader([]byte("fLaC and more bytes"))

	require.NoError(t, skipID3v2(r))
	rest, _ := io.ReadAll(r)
	assert.Equal(t, "fLaC and more bytes", string(rest))
}

func TestSkipID3v2_ShortInput(t *testing.T) {
	r := bytes.NewReader([]byte("fLaC"))

	require.NoError(t, skipID3v2(r))
	rest, _ := io.ReadAll(r)
	assert.Equal(t, "fLaC", string(rest))
}

func TestLevelToVolume(t *testing.T) {
	assert.InDelta(t, 0.0, levelToVolume(1), 1e-9)
	assert.InDelta(t, -1.0, levelToVolume(0.5), 1e-9)
	assert.InDelta(t, -2.0, levelToVolume(0.25), 1e-9)
	assert.InDelta(t, -10.0, levelToVolume(0), 1e-9)
	assert.InDelta(t, 0.0, levelToVolume(2), 1e-9)
}
