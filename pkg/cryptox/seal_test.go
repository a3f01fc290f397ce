package cryptox_test

import (
	"strings"
	"testing"

	"github.com/openshelf/openshelf/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	secrets := []string{"s", "a-much-longer-secret-than-a-block", "пароль", "🔑"}
	plaintexts := []string{"", "x", "some.jwt.token", strings.Repeat("a", 1000)}

	for _, secret := range secrets {
		for _, plaintext := range plaintexts {
			sealed, err := cryptox.Seal(plaintext, secret)
			require.NoError(t, err)

			opened, err := cryptox.Open(sealed, secret)
			require.NoError(t, err)
			require.Equal(t, plaintext, opened)
		}
	}
}

func TestSealIsNonDeterministic(t *testing.T) {
	t.Parallel()

	a, err := cryptox.Seal("same plaintext", "secret")
	require.NoError(t, err)
	b, err := cryptox.Seal("same plaintext", "secret")
	require.NoError(t, err)
	require.NotEqual(t, a, b, "fresh IV per call must vary the output")

	for _, sealed := range []string{a, b} {
		opened, err := cryptox.Open(sealed, "secret")
		require.NoError(t, err)
		require.Equal(t, "same plaintext", opened)
	}
}

func TestOpenWrongSecret(t *testing.T) {
	t.Parallel()

	sealed, err := cryptox.Seal("payload", "secret-one")
	require.NoError(t, err)

	_, err = cryptox.Open(sealed, "secret-two")
	require.ErrorIs(t, err, cryptox.ErrInvalidPayload)
}

func TestOpenMalformedPayloads(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":            "",
		"no separator":     "YWJjZA==",
		"short iv":         "YWJj:YWJjZGFiY2RhYmNkYWJjZA==",
		"bad base64 iv":    "!!!!:YWJjZGFiY2RhYmNkYWJjZA==",
		"bad base64 body":  "YWJjZGFiY2RhYmNkYWJjZA==:!!!!",
		"empty ciphertext": "YWJjZGFiY2RhYmNkYWJjZA==:",
		"unaligned body":   "YWJjZGFiY2RhYmNkYWJjZA==:YWJj",
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := cryptox.Open(payload, "secret")
			require.ErrorIs(t, err, cryptox.ErrInvalidPayload)
		})
	}
}

func TestOpenTamperedCiphertext(t *testing.T) {
	t.Parallel()

	sealed, err := cryptox.Seal("payload that spans multiple aes blocks easily", "secret")
	require.NoError(t, err)

	// Flip a character in the ciphertext part.
	i := strings.IndexByte(sealed, ':') + 1
	tampered := []byte(sealed)
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}

	opened, err := cryptox.Open(string(tampered), "secret")
	if err == nil {
		// CBC without a MAC cannot detect every flip; the plaintext must at
		// least differ so downstream signature verification rejects it.
		require.NotEqual(t, "payload that spans multiple aes blocks easily", opened)
	} else {
		require.ErrorIs(t, err, cryptox.ErrInvalidPayload)
	}
}

func TestSealEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := cryptox.Seal("payload", "")
	require.Error(t, err)

	_, err = cryptox.Open("a:b", "")
	require.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := cryptox.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, cryptox.VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, cryptox.VerifyPassword("wrong", hash), cryptox.ErrPasswordMismatch)

	// Hashing is salted: same password, different encodings.
	again, err := cryptox.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, hash, again)
	require.NoError(t, cryptox.VerifyPassword("correct horse battery staple", again))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	for _, encoded := range []string{"", "plaintext", "$bcrypt$v=19$m=1,t=1,p=1$c$c", "$argon2id$v=18$m=1,t=1,p=1$c$c"} {
		require.Error(t, cryptox.VerifyPassword("pw", encoded))
	}
}
