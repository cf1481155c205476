package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
	"strconv"
	"strings"
)

const codeSpace = 1_000_000

var ErrMalformedCode = errors.New("security: code is not a non-negative integer")

// CodeSigner computes keyed digests of one-time codes. Each flow owns a
// signer with its own key.
type CodeSigner struct {
	key []byte
}

func NewCodeSigner(key []byte) *CodeSigner {
	k := make([]byte, len(key))
	copy(k, key)
	return &CodeSigner{key: k}
}

// Sign returns the hex HMAC-SHA256 of code.
func (s *CodeSigner) Sign(code string) string {
	mac := hmac.New(sha256.New, s.key)
	_, _ = mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// Matches signs candidate and compares it to digest in constant time.
func (s *CodeSigner) Matches(candidate, digest string) bool {
	return hmac.Equal([]byte(s.Sign(candidate)), []byte(digest))
}

// CodeGenerator draws decimal codes uniformly from [0, 1000000).
type CodeGenerator struct {
	rand io.Reader
}

// NewCodeGenerator uses crypto/rand when r is nil.
func NewCodeGenerator(r io.Reader) *CodeGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &CodeGenerator{rand: r}
}

// Generate returns a code without zero padding, e.g. "4211" or "930017".
func (g *CodeGenerator) Generate() (string, error) {
	n, err := rand.Int(g.rand, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// NormalizeCode renders a submitted code the way issued codes are rendered,
// so "004211" and "4211" are the same code.
func NormalizeCode(code string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(code), 10, 64)
	if err != nil {
		return "", ErrMalformedCode
	}
	return strconv.FormatUint(n, 10), nil
}
