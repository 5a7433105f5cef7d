// Package signer mints time-limited signed serving URLs for media assets.
// The signature is verified downstream by the CDN, never here; the gateway
// only has to produce a deterministic signature over the canonical path+query.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the fixed expiry window applied at mint time.
const DefaultTTL = 24 * time.Hour

var (
	ErrBadSignature = errors.New("signature mismatch")
	ErrExpired      = errors.New("signed url expired")
)

// Signer holds the server-side signing key and the public base URL the signed
// paths are served under.
type Signer struct {
	key     []byte
	baseURL string
	ttl     time.Duration
}

// New creates a Signer. baseURL is used verbatim as the URL prefix (no
// trailing slash); a zero ttl falls back to DefaultTTL.
func New(key []byte, baseURL string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		key:     key,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
	}
}

// TTL returns the configured expiry window.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign returns the fully qualified signed URL for path, expiring at
// now+ttl. Signing the same (path, exp) pair with the same key always yields
// the same URL.
func (s *Signer) Sign(path string, now time.Time) string {
	path = canonicalPath(path)
	exp := now.Add(s.ttl).Unix()
	sig := s.signature(path, exp)
	return fmt.Sprintf("%s/%s?exp=%d&sig=%s", s.baseURL, path, exp, sig)
}

// Verify checks sig against (path, exp) and the expiry against now. The
// production verifier lives in the CDN; this one backs tests and the CLI.
func (s *Signer) Verify(path string, exp int64, sig string, now time.Time) error {
	want := s.signature(canonicalPath(path), exp)
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return ErrBadSignature
	}
	if now.Unix() > exp {
		return ErrExpired
	}
	return nil
}

// signature computes hex(HMAC-SHA256(key, path + "?" + canonicalQuery)).
func (s *Signer) signature(path string, exp int64) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(path + "?exp=" + strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func canonicalPath(p string) string {
	return strings.TrimLeft(p, "/")
}
