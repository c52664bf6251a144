package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AssetStore is the renderer's keyed asset cache: one store per engine
// instance, shared across all layers. It is written only via LoadAsset (or
// Prefetch) and read implicitly by the renderer during frame production.
// Loading the same id again replaces the previous bytes.
type AssetStore struct {
	mu     sync.RWMutex
	raw    map[string][]byte
	images map[string]image.Image
}

// NewAssetStore returns an empty asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		raw:    make(map[string][]byte),
		images: make(map[string]image.Image),
	}
}

// Load decodes data as an image and caches it under id. Undecodable bytes
// produce an AssetError and leave any previous entry intact.
func (s *AssetStore) Load(id string, data []byte) error {
	if len(data) == 0 {
		return &AssetError{ID: id, Err: errEmptyAsset}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return &AssetError{ID: id, Err: err}
	}

	s.mu.Lock()
	s.raw[id] = data
	s.images[id] = img
	s.mu.Unlock()
	return nil
}

// Image returns the decoded image for id, if loaded.
func (s *AssetStore) Image(id string) (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	return img, ok
}

// Len returns the number of cached assets.
func (s *AssetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// Prefetch reads and loads several asset files concurrently. The first
// failure cancels the remaining reads and is returned to the caller; assets
// loaded before the failure stay in the cache.
func (s *AssetStore) Prefetch(ctx context.Context, files map[string]string) error {
	g, ctx := errgroup.WithContext(ctx)
	for id, path := range files {
		id, path := id, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return &AssetError{ID: id, Err: err}
			}
			return s.Load(id, data)
		})
	}
	return g.Wait()
}

var errEmptyAsset = errors.New("empty asset data")
