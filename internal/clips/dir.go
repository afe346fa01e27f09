package clips

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirProvider loads clip assets from a local directory tree laid out as
// <root>/<group>/<token>.pcm. Useful for development and self-hosted
// deployments without object storage.
type DirProvider struct {
	Root string
}

var _ AssetProvider = (*DirProvider)(nil)

func (p *DirProvider) Assets(_ context.Context) ([]Asset, error) {
	var assets []Asset
	err := filepath.WalkDir(p.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".pcm") {
			return nil
		}

		rel, err := filepath.Rel(p.Root, path)
		if err != nil {
			return err
		}
		group := filepath.Dir(rel)
		if group == "." {
			// Clips directly under the root belong to no group; skip.
			return nil
		}
		token := strings.TrimSuffix(d.Name(), ".pcm")

		assets = append(assets, Asset{
			Group: group,
			Token: token,
			Open: func(context.Context) (io.ReadCloser, error) {
				return os.Open(path)
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}
