package clips_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/cpike5/discordbot-sub005/internal/clips"
)

type mapProvider map[string]map[string][]byte

func (p mapProvider) Assets(_ context.Context) ([]clips.Asset, error) {
	var assets []clips.Asset
	for group, tokens := range p {
		for token, pcm := range tokens {
			assets = append(assets, clips.Asset{
				Group: group,
				Token: token,
				Open: func(context.Context) (io.ReadCloser, error) {
					return io.NopCloser(bytes.NewReader(pcm)), nil
				},
			})
		}
	}
	return assets, nil
}

func TestLibraryLookup(t *testing.T) {
	lib, err := clips.Load(t.Context(), mapProvider{
		"vox": {
			"alpha": {0x01, 0x02},
			"bravo": {0x03},
		},
		"fvox": {
			"alpha": {0x09},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	clip, ok := lib.Lookup("vox", "alpha")
	if !ok {
		t.Fatal("expected vox/alpha to be found")
	}
	if !bytes.Equal(clip.PCM, []byte{0x01, 0x02}) {
		t.Errorf("unexpected clip bytes: %v", clip.PCM)
	}

	// Groups are independent namespaces.
	clip, ok = lib.Lookup("fvox", "alpha")
	if !ok || !bytes.Equal(clip.PCM, []byte{0x09}) {
		t.Errorf("fvox/alpha lookup = (%v, %v)", clip.PCM, ok)
	}

	if _, ok := lib.Lookup("vox", "charlie"); ok {
		t.Error("expected vox/charlie to be absent")
	}
	if _, ok := lib.Lookup("hev", "alpha"); ok {
		t.Error("expected unknown group lookup to miss")
	}

	if got := lib.Len("vox"); got != 2 {
		t.Errorf("Len(vox) = %d, want 2", got)
	}
	if !lib.HasGroup("fvox") || lib.HasGroup("hev") {
		t.Error("HasGroup misreported group presence")
	}
}

func TestLibraryLookupIsCaseInsensitive(t *testing.T) {
	lib, err := clips.Load(t.Context(), mapProvider{
		"vox": {"Alpha": {0x01}},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := lib.Lookup("vox", "ALPHA"); !ok {
		t.Error("expected case-insensitive token match")
	}
}
