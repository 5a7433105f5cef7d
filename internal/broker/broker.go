// Package broker resolves named deployment secrets and verifies the
// application access password. The same Broker value backs the HTTP endpoints
// and direct in-process callers, so both paths share one set of semantics.
package broker

import (
	"crypto/subtle"
	"errors"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownSecret is returned by GetSecret for names outside the allow-list.
// Callers should use errors.Is to distinguish this from real failures.
var ErrUnknownSecret = errors.New("unknown secret")

// Broker holds the allow-listed secret map and the access password. Both are
// fixed at construction; the broker never mutates or creates secrets.
type Broker struct {
	secrets        map[string]string
	accessPassword string
}

// New builds a Broker over the provisioned name->value map and the configured
// access password. The password may be a bcrypt hash ($2a$/$2b$/$2y$ prefix)
// or a plain value compared in constant time.
func New(secrets map[string]string, accessPassword string) *Broker {
	copied := make(map[string]string, len(secrets))
	for k, v := range secrets {
		copied[k] = v
	}
	return &Broker{
		secrets:        copied,
		accessPassword: accessPassword,
	}
}

// GetSecret returns the exact provisioned value for name, or ErrUnknownSecret
// if the name is not in the allow-list. The value itself is never wrapped into
// the error.
func (b *Broker) GetSecret(name string) (string, error) {
	v, ok := b.secrets[name]
	if !ok {
		return "", ErrUnknownSecret
	}
	return v, nil
}

// Names returns the allow-listed secret names, sorted.
func (b *Broker) Names() []string {
	names := make([]string, 0, len(b.secrets))
	for k := range b.secrets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Values returns every provisioned secret value plus the access password,
// for feeding the log redactor.
func (b *Broker) Values() []string {
	vals := make([]string, 0, len(b.secrets)+1)
	for _, v := range b.secrets {
		vals = append(vals, v)
	}
	if b.accessPassword != "" && !isBcryptHash(b.accessPassword) {
		vals = append(vals, b.accessPassword)
	}
	return vals
}

// VerifyPassword reports whether candidate matches the configured access
// password. Empty or missing input is always false, and nothing about the
// real password leaks through the return value.
func (b *Broker) VerifyPassword(candidate string) bool {
	if candidate == "" || b.accessPassword == "" {
		return false
	}
	if isBcryptHash(b.accessPassword) {
		return bcrypt.CompareHashAndPassword([]byte(b.accessPassword), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(b.accessPassword)) == 1
}

func isBcryptHash(v string) bool {
	return strings.HasPrefix(v, "$2a$") || strings.HasPrefix(v, "$2b$") || strings.HasPrefix(v, "$2y$")
}
