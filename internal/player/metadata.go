package player

import (
	"time"
)

// ProbeDuration decodes the header of the file at path and returns its
// length.
func ProbeDuration(path string) (time.Duration, error) {
	streamer, format, err := open(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
