// internal/catalog/dir.go
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// DirFetcher serves catalog documents from a local directory. Only the last
// element of the requested URL is used, so it works with any base URL.
type DirFetcher struct {
	Root string
}

func (d DirFetcher) Get(ctx context.Context, url string, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(d.Root, path.Base(url)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("document larger than %d bytes", limit)
	}
	return data, nil
}
