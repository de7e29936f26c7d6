package signer

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// VerifyURL checks a signed URL against the public half of the signing key
// at the given instant: the signature must match the canned policy for the
// exact resource, and the expiry must not have passed. Used by tests and
// dev tooling to pin the validity-window contract.
func VerifyURL(signed string, pub *rsa.PublicKey, at time.Time) error {
	u, err := url.Parse(signed)
	if err != nil {
		return fmt.Errorf("failed to parse signed URL: %w", err)
	}
	q := u.Query()

	expiresStr := q.Get("Expires")
	if expiresStr == "" {
		return fmt.Errorf("signed URL missing Expires")
	}
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid Expires value: %w", err)
	}
	if !at.Before(time.Unix(expires, 0)) {
		return fmt.Errorf("signed URL expired at %d", expires)
	}

	sig, err := decodeSignature(q.Get("Signature"))
	if err != nil {
		return fmt.Errorf("invalid Signature value: %w", err)
	}

	resource := u.Scheme + "://" + u.Host + u.Path
	policy := cannedPolicy(resource, time.Unix(expires, 0))
	digest := sha1.Sum(policy)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, digest[:], sig); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
