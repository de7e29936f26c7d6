package signer

import (
	"fmt"
	"path/filepath"

	"AriaVault/logger"

	"github.com/fsnotify/fsnotify"
)

// WatchRotation invalidates the signer's cached key whenever the key file
// changes on disk, so a rotated key takes effect without a restart. An
// attacker holding the old key must not be able to mint URLs after
// rotation, so invalidation is immediate rather than waiting for the
// cache's max age. The returned function stops the watcher.
func WatchRotation(s *CDNSigner, keyPath string) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create rotation watcher: %w", err)
	}

	// Watch the directory rather than the file: rotations commonly replace
	// the file, which would silently drop a direct file watch.
	if err := watcher.Add(filepath.Dir(keyPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(keyPath), err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != keyPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					logger.Info("Signing key rotated, invalidating cached key",
						logger.String("op", event.Op.String()),
					)
					s.InvalidateKey()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Rotation watcher error", logger.ErrorField(err))
			}
		}
	}()

	return watcher.Close, nil
}
