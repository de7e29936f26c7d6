package catalog

import (
	"context"
	"fmt"
	"strings"

	"AriaVault/cache"
	"AriaVault/core/gate"
	"AriaVault/core/signer"
	"AriaVault/logger"
	"AriaVault/model"
	"AriaVault/storage"

	"golang.org/x/sync/errgroup"
)

// RootPrefix 是所有播放列表共享的存储键前缀
const RootPrefix = "playlists/"

// signConcurrency bounds the per-request signing fan-out.
const signConcurrency = 8

// ScopePrefix returns the storage prefix an identity is restricted to.
// Admins see the whole playlist root; clients only their own folder.
// Access control is this prefix construction: callers never supply an
// absolute path, so a client cannot address another subject's prefix.
func ScopePrefix(id model.Identity) string {
	if id.IsAdmin() {
		return RootPrefix
	}
	return RootPrefix + id.SubjectID + "/"
}

// PlaylistPrefix returns the storage prefix of one playlist within an
// identity's scope.
func PlaylistPrefix(id model.Identity, playlist string) string {
	return ScopePrefix(id) + playlist + "/"
}

// RefFor returns the PlaylistRef a playlist name resolves to within an
// identity's scope. Admin requests address top-level playlists, so their
// refs carry the shared-root scope.
func RefFor(id model.Identity, playlist string) model.PlaylistRef {
	if id.IsAdmin() {
		return model.PlaylistRef{Scope: model.SharedRootScope, Name: playlist}
	}
	return model.PlaylistRef{Scope: id.SubjectID, Name: playlist}
}

// Resolver lists playlists and tracks-with-signed-URLs for an identity,
// enforcing scoping through prefix construction alone.
type Resolver struct {
	store    storage.CatalogStore
	signer   signer.Signer
	listings *cache.ListingCache // may be nil; cache misses fall through to the store
}

// NewResolver 创建播放列表目录解析器
func NewResolver(store storage.CatalogStore, s signer.Signer, listings *cache.ListingCache) *Resolver {
	return &Resolver{
		store:    store,
		signer:   s,
		listings: listings,
	}
}

// ListPlaylists returns the playlist names visible to the identity, in
// store listing order. Order is not guaranteed stable across calls.
func (r *Resolver) ListPlaylists(ctx context.Context, id model.Identity) ([]string, error) {
	prefix := ScopePrefix(id)

	if names, ok := r.listings.Get(ctx, prefix); ok {
		return names, nil
	}

	names, err := r.store.ListFolders(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists under %s: %w", prefix, err)
	}
	if names == nil {
		names = []string{}
	}

	r.listings.Put(ctx, prefix, names)
	return names, nil
}

// ListTracks returns the tracks of one playlist with a freshly signed
// playback URL each, preserving store listing order. Tracks whose key does
// not carry an allowed audio extension are filtered out. A missing playlist
// yields an empty result, not an error; any signing failure fails the whole
// request so no partial signed-URL set is ever disclosed.
func (r *Resolver) ListTracks(ctx context.Context, id model.Identity, playlist string) ([]model.SongEntry, error) {
	ref := RefFor(id, playlist)
	prefix := PlaylistPrefix(id, playlist)
	logger.Debug("Resolving playlist tracks",
		logger.String("scope", ref.Scope),
		logger.String("playlist", ref.Name),
	)

	objects, err := r.store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks under %s: %w", prefix, err)
	}

	type candidate struct {
		key  string
		name string
	}
	var tracks []candidate
	for _, obj := range objects {
		name := obj.Key
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if _, ok := gate.Format(name); !ok {
			logger.Debug("Skipping non-audio object in playlist",
				logger.String("key", obj.Key),
			)
			continue
		}
		tracks = append(tracks, candidate{key: obj.Key, name: name})
	}

	entries := make([]model.SongEntry, len(tracks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)
	for i, t := range tracks {
		i, t := i, t
		g.Go(func() error {
			signed, err := r.signer.Sign(gctx, t.key)
			if err != nil {
				return fmt.Errorf("failed to sign URL for %s: %w", t.key, err)
			}
			entries[i] = model.SongEntry{Name: t.name, URL: signed.URL}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
