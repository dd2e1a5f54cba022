package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DownloadToFile fetches rawURL into dest and returns the number of bytes written.
// The content is streamed into a temporary sibling of dest which is renamed
// into place only once the body has been fully read, so dest never holds a
// partial download.
func DownloadToFile(ctx context.Context, f Fetcher, rawURL, dest string) (int64, error) {
	artifact, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer artifact.Body.Close()

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, artifact.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && artifact.Size >= 0 && n != artifact.Size {
		err = fmt.Errorf("short read from %s: got %d bytes, expected %d", rawURL, n, artifact.Size)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	logrus.Debugf("Downloaded %s to %s (%d bytes)", rawURL, dest, n)
	return n, nil
}
