package datalayer

import (
	"context"
	"fmt"
	"io"

	"github.com/cpike5/discordbot-sub005/internal/clips"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClipAssetSource exposes the clip_asset table plus blob storage as a
// clips.AssetProvider. The mapping lives in postgres; the PCM payloads
// live in object storage.
type ClipAssetSource struct {
	db      *pgxpool.Pool
	storage BlobStorage
}

func NewClipAssetSource(db *pgxpool.Pool, storage BlobStorage) *ClipAssetSource {
	return &ClipAssetSource{db: db, storage: storage}
}

var _ clips.AssetProvider = (*ClipAssetSource)(nil)

func (s *ClipAssetSource) Assets(ctx context.Context) ([]clips.Asset, error) {
	const query = `SELECT clip_group, token, object_key FROM clip_asset`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query clip assets: %w", err)
	}
	defer rows.Close()

	var assets []clips.Asset
	for rows.Next() {
		var group, token, key string
		if err := rows.Scan(&group, &token, &key); err != nil {
			return nil, fmt.Errorf("scan clip asset: %w", err)
		}
		assets = append(assets, clips.Asset{
			Group: group,
			Token: token,
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return s.storage.Get(ctx, key)
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clip assets: %w", err)
	}
	return assets, nil
}

// Register uploads a clip's PCM bytes and records the (group, token) mapping.
// An existing mapping is repointed at the new object.
func (s *ClipAssetSource) Register(ctx context.Context, group, token string, data io.Reader, size int64) error {
	key := ClipKey(group, token)
	if err := s.storage.Put(ctx, key, data, PutOptions{Size: size}); err != nil {
		return fmt.Errorf("upload clip asset: %w", err)
	}

	const query = `
	INSERT INTO clip_asset (clip_group, token, object_key, byte_size)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (clip_group, token) DO UPDATE SET
		object_key = EXCLUDED.object_key,
		byte_size = EXCLUDED.byte_size
	`
	if _, err := s.db.Exec(ctx, query, group, token, key, size); err != nil {
		return fmt.Errorf("record clip asset: %w", err)
	}
	return nil
}
