package signer

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"AriaVault/model"
	"AriaVault/secret"
)

// SigningKeyName is the fixed logical name the private key is fetched
// under from the secret store.
const SigningKeyName = "cdn_signing_key.pem"

// URLTTL is the validity window of every signed URL, starting at issuance.
// Windows are never extended or reused.
const URLTTL = 5 * time.Minute

// Signer mints time-bounded playback URLs for object keys.
type Signer interface {
	Sign(ctx context.Context, objectKey string) (model.SignedURL, error)
}

// CDNSigner signs playback URLs against a CDN domain using a canned policy
// ("this exact URL until expiresAt") and an RSA key pair identified by a
// configured key-pair id.
type CDNSigner struct {
	domain    string
	keyPairID string
	keys      *keyCache

	// Now is the clock used for issuance; overridable in tests.
	Now func() time.Time
}

// NewCDNSigner 创建一个新的CDN签名器
func NewCDNSigner(store secret.Store, cdnDomain, keyPairID string) *CDNSigner {
	return &CDNSigner{
		domain:    cdnDomain,
		keyPairID: keyPairID,
		keys:      newKeyCache(store, SigningKeyName),
		Now:       time.Now,
	}
}

// Sign mints a signed URL for objectKey, valid for URLTTL from now. A
// secret-store failure or malformed key material is surfaced as an error;
// there is no unsigned fallback.
func (s *CDNSigner) Sign(ctx context.Context, objectKey string) (model.SignedURL, error) {
	key, err := s.keys.private(ctx, s.Now())
	if err != nil {
		return model.SignedURL{}, fmt.Errorf("failed to acquire signing key: %w", err)
	}

	issued := s.Now().UTC()
	expires := issued.Add(URLTTL)
	resource := canonicalURL(s.domain, objectKey)

	policy := cannedPolicy(resource, expires)
	digest := sha1.Sum(policy)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	if err != nil {
		return model.SignedURL{}, fmt.Errorf("failed to sign policy for %s: %w", objectKey, err)
	}

	url := fmt.Sprintf("%s?Expires=%d&Signature=%s&Key-Pair-Id=%s",
		resource, expires.Unix(), encodeSignature(sig), s.keyPairID)

	return model.SignedURL{
		URL:       url,
		IssuedAt:  issued,
		ExpiresAt: expires,
	}, nil
}

// InvalidateKey drops the cached signing key so the next Sign refetches it.
// Called on rotation events.
func (s *CDNSigner) InvalidateKey() {
	s.keys.invalidate()
}

// canonicalURL builds the playback URL for an object against the CDN domain.
func canonicalURL(domain, objectKey string) string {
	return "https://" + domain + "/" + strings.TrimPrefix(objectKey, "/")
}

// cannedPolicy grants access to exactly one resource until expires.
func cannedPolicy(resource string, expires time.Time) []byte {
	return []byte(fmt.Sprintf(
		`{"Statement":[{"Resource":%q,"Condition":{"DateLessThan":{"EpochTime":%d}}}]}`,
		resource, expires.Unix()))
}

// encodeSignature base64-encodes a signature with the CDN's URL-safe
// alphabet: '+' -> '-', '=' -> '_', '/' -> '~'.
func encodeSignature(sig []byte) string {
	enc := base64.StdEncoding.EncodeToString(sig)
	r := strings.NewReplacer("+", "-", "=", "_", "/", "~")
	return r.Replace(enc)
}

// decodeSignature reverses encodeSignature.
func decodeSignature(s string) ([]byte, error) {
	r := strings.NewReplacer("-", "+", "_", "=", "~", "/")
	return base64.StdEncoding.DecodeString(r.Replace(s))
}
