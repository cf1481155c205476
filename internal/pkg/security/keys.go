// Package security holds the credential primitives: password hashing, keyed
// code digests, one-time code generation, and session tokens.
package security

import "errors"

// Keys groups the process secrets. It is built once from configuration and
// handed to the components that need it.
type Keys struct {
	TokenSecret              []byte
	VerificationCodeSecret   []byte
	ForgotPasswordCodeSecret []byte
}

var ErrWeakKeys = errors.New("security: secrets must be non-empty and distinct")

// Validate checks that every secret is set and that no two are equal.
func (k Keys) Validate() error {
	secrets := [][]byte{k.TokenSecret, k.VerificationCodeSecret, k.ForgotPasswordCodeSecret}
	for i, a := range secrets {
		if len(a) == 0 {
			return ErrWeakKeys
		}
		for _, b := range secrets[i+1:] {
			if string(a) == string(b) {
				return ErrWeakKeys
			}
		}
	}
	return nil
}
