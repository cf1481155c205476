package security

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeSigner_Deterministic(t *testing.T) {
	s := NewCodeSigner([]byte("verification-key"))

	a := s.Sign("123456")
	b := s.Sign("123456")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.True(t, s.Matches("123456", a))
	assert.False(t, s.Matches("123457", a))
}

func TestCodeSigner_KeysAreIndependent(t *testing.T) {
	verification := NewCodeSigner([]byte("verification-key"))
	forgot := NewCodeSigner([]byte("forgot-password-key"))

	digest := verification.Sign("4211")
	assert.NotEqual(t, digest, forgot.Sign("4211"))
	assert.False(t, forgot.Matches("4211", digest))
}

func TestCodeSigner_KeyIsCopied(t *testing.T) {
	key := []byte("verification-key")
	s := NewCodeSigner(key)
	before := s.Sign("1")
	key[0] = 'X'
	assert.Equal(t, before, s.Sign("1"))
}

func TestCodeGenerator_Range(t *testing.T) {
	g := NewCodeGenerator(nil)
	for i := 0; i < 200; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(code), 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 1_000_000)
		assert.Equal(t, strconv.Itoa(n), code, "no zero padding")
	}
}

func TestCodeGenerator_ReaderFailure(t *testing.T) {
	g := NewCodeGenerator(bytes.NewReader(nil))
	_, err := g.Generate()
	assert.Error(t, err)
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"4211":     "4211",
		"004211":   "4211",
		" 930017 ": "930017",
		"0":        "0",
	}
	for in, want := range cases {
		got, err := NormalizeCode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "12a4", "-5", "1.5"} {
		_, err := NormalizeCode(bad)
		assert.ErrorIs(t, err, ErrMalformedCode, bad)
	}
}

func TestKeys_Validate(t *testing.T) {
	ok := Keys{
		TokenSecret:              []byte("a"),
		VerificationCodeSecret:   []byte("b"),
		ForgotPasswordCodeSecret: []byte("c"),
	}
	assert.NoError(t, ok.Validate())

	missing := ok
	missing.ForgotPasswordCodeSecret = nil
	assert.ErrorIs(t, missing.Validate(), ErrWeakKeys)

	shared := ok
	shared.ForgotPasswordCodeSecret = []byte("b")
	assert.ErrorIs(t, shared.Validate(), ErrWeakKeys)
}
