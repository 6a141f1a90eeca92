package library

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Cover image names in priority order. Matching ignores case.
var (
	coverStems = []string{"cover", "folder", "album", "front"}
	coverExts  = []string{".jpg", ".png", ".jpeg"}
)

// CoverArt returns the path of the cover image stored next to trackPath,
// or "" if there is none.
func CoverArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	best, bestRank := "", len(coverStems)*len(coverExts)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		ext := filepath.Ext(name)
		si := slices.Index(coverStems, strings.TrimSuffix(name, ext))
		ei := slices.Index(coverExts, ext)
		if si < 0 || ei < 0 {
			continue
		}
		if rank := si*len(coverExts) + ei; rank < bestRank {
			best, bestRank = filepath.Join(dir, e.Name()), rank
		}
	}
	return best
}
