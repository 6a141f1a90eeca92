package library

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
)

// ErrAccessDenied is returned when a library folder cannot be read.
var ErrAccessDenied = errors.New("library access denied")

// FolderAuthorizer grants access when every library folder is a readable
// directory.
type FolderAuthorizer struct {
	Sources []string
}

// Authorize checks each source folder.
func (a FolderAuthorizer) Authorize(ctx context.Context) error {
	if len(a.Sources) == 0 {
		return errors.Wrap(ErrAccessDenied, "no library sources configured")
	}
	for _, src := range a.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(src)
		if err != nil {
			return errors.Wrapf(ErrAccessDenied, "%s: %v", src, err)
		}
		if !info.IsDir() {
			return errors.Wrapf(ErrAccessDenied, "%s is not a directory", src)
		}
		d, err := os.Open(src)
		if err != nil {
			return errors.Wrapf(ErrAccessDenied, "%s: %v", src, err)
		}
		d.Close()
	}
	return nil
}
