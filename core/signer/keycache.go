package signer

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"
	"time"

	"AriaVault/secret"
)

// keyMaxAge bounds how long a cached key is trusted before it is re-read
// from the secret store, so a rotation is picked up even if no filesystem
// event ever arrives.
const keyMaxAge = 10 * time.Minute

// keyCache holds the parsed signing key for the life of the process, with
// explicit invalidation on rotation and time-boxed revalidation. The key
// bytes themselves are never logged.
type keyCache struct {
	store secret.Store
	name  string

	mu        sync.Mutex
	key       *rsa.PrivateKey
	fetchedAt time.Time
}

func newKeyCache(store secret.Store, name string) *keyCache {
	return &keyCache{store: store, name: name}
}

// private returns the cached key, refetching when the cache is empty or
// older than keyMaxAge.
func (c *keyCache) private(ctx context.Context, now time.Time) (*rsa.PrivateKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil && now.Sub(c.fetchedAt) < keyMaxAge {
		return c.key, nil
	}

	material, err := c.store.Fetch(ctx, c.name)
	if err != nil {
		return nil, err
	}
	key, err := parsePrivateKey(material)
	if err != nil {
		return nil, err
	}

	c.key = key
	c.fetchedAt = now
	return key, nil
}

func (c *keyCache) invalidate() {
	c.mu.Lock()
	c.key = nil
	c.mu.Unlock()
}

// parsePrivateKey decodes PEM-wrapped PKCS#8 or PKCS#1 RSA key material.
func parsePrivateKey(material []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(material)
	if block == nil {
		return nil, fmt.Errorf("signing key material is not valid PEM")
	}

	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("signing key is not an RSA key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	return rsaKey, nil
}
