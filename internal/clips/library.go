// Package clips holds the read-only clip libraries used for message
// synthesis. A library maps (group, token) to a short pre-recorded PCM clip.
// Libraries are loaded once at startup and never mutated afterwards, so
// lookups are safe for unsynchronized concurrent use.
package clips

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Clip is one pre-recorded audio unit, stored as raw s16le 48 kHz stereo PCM.
type Clip struct {
	Group string
	Token string
	PCM   []byte
}

// Asset is a loadable clip reference supplied by an AssetProvider.
type Asset struct {
	Group string
	Token string
	Open  func(ctx context.Context) (io.ReadCloser, error)
}

// AssetProvider enumerates the clip assets available at startup.
type AssetProvider interface {
	Assets(ctx context.Context) ([]Asset, error)
}

// Library is the immutable (group, token) -> Clip mapping.
type Library struct {
	groups map[string]map[string]Clip
}

// Load reads every asset from the provider into memory. Duplicate
// (group, token) pairs keep the first occurrence; the rest are logged
// and skipped.
func Load(ctx context.Context, provider AssetProvider) (*Library, error) {
	assets, err := provider.Assets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clip assets: %w", err)
	}

	groups := make(map[string]map[string]Clip)
	for _, asset := range assets {
		token := strings.ToLower(asset.Token)

		g, ok := groups[asset.Group]
		if !ok {
			g = make(map[string]Clip)
			groups[asset.Group] = g
		}
		if _, exists := g[token]; exists {
			slog.Warn("duplicate clip asset skipped", "group", asset.Group, "token", token)
			continue
		}

		rc, err := asset.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open clip %s/%s: %w", asset.Group, token, err)
		}
		pcm, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read clip %s/%s: %w", asset.Group, token, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close clip %s/%s: %w", asset.Group, token, closeErr)
		}

		g[token] = Clip{Group: asset.Group, Token: token, PCM: pcm}
	}

	return &Library{groups: groups}, nil
}

// Lookup returns the clip for (group, token). Tokens are matched
// case-insensitively.
func (l *Library) Lookup(group, token string) (Clip, bool) {
	g, ok := l.groups[group]
	if !ok {
		return Clip{}, false
	}
	clip, ok := g[strings.ToLower(token)]
	return clip, ok
}

// HasGroup reports whether the library contains the named group.
func (l *Library) HasGroup(group string) bool {
	_, ok := l.groups[group]
	return ok
}

// Groups returns the names of all loaded clip groups.
func (l *Library) Groups() []string {
	names := make([]string, 0, len(l.groups))
	for name := range l.groups {
		names = append(names, name)
	}
	return names
}

// Len returns the number of clips in a group.
func (l *Library) Len(group string) int {
	return len(l.groups[group])
}
