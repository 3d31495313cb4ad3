package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	c := NewCipher("unit-test-secret")

	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple text", "hello world"},
		{"empty string", ""},
		{"embedded colons", "a:b:c:d"},
		{"json array", `[{"id":1,"username":"jdoe"}]`},
		{"unicode", "pässwörd 密码 🔐"},
		{"exactly one block", strings.Repeat("x", 16)},
		{"long text", strings.Repeat("block", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := c.Encrypt(tt.plaintext)
			require.NoError(t, err)
			require.Contains(t, blob, ":")

			got, err := c.Decrypt(blob)
			require.NoError(t, err)
			require.Equal(t, tt.plaintext, got)
		})
	}
}

func TestCipherIVFreshness(t *testing.T) {
	c := NewCipher("unit-test-secret")

	first, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := c.Encrypt("same plaintext")
	require.NoError(t, err)

	// Random IV per call means identical plaintexts never share a blob.
	require.NotEqual(t, first, second)

	ivA, _, _ := strings.Cut(first, ":")
	ivB, _, _ := strings.Cut(second, ":")
	require.NotEqual(t, ivA, ivB)
	require.Len(t, ivA, 32) // 16-byte IV hex-encoded
}

func TestCipherDecryptMalformed(t *testing.T) {
	c := NewCipher("unit-test-secret")

	tests := []struct {
		name string
		blob string
		want error
	}{
		{"no separator", "deadbeef", ErrFormat},
		{"empty iv", ":deadbeef", ErrFormat},
		{"empty ciphertext", "deadbeef:", ErrFormat},
		{"non-hex iv", "zzzz:deadbeef", ErrFormat},
		{"non-hex ciphertext", "00112233445566778899aabbccddeeff:not-hex", ErrFormat},
		{"short iv", "deadbeef:00112233445566778899aabbccddeeff", ErrDecrypt},
		{"unaligned ciphertext", "00112233445566778899aabbccddeeff:deadbeef", ErrDecrypt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.blob)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCipherWrongKey(t *testing.T) {
	blob, err := NewCipher("the-right-secret").Encrypt(`[{"id":1}]`)
	require.NoError(t, err)

	_, err = NewCipher("the-wrong-secret").Decrypt(blob)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestCipherKeyDerivation(t *testing.T) {
	// Short secrets are right-padded with '0', long ones truncated at 32
	// bytes. Equivalent derived keys must decrypt each other's blobs.
	tests := []struct {
		name    string
		writeAs string
		readAs  string
		same    bool
	}{
		{"short secret self", "abc", "abc", true},
		{"padded equivalence", "abc", "abc" + strings.Repeat("0", 29), true},
		{"truncated equivalence", strings.Repeat("k", 40), strings.Repeat("k", 32), true},
		{"different short secrets", "abc", "abd", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := NewCipher(tt.writeAs).Encrypt("payload")
			require.NoError(t, err)

			got, err := NewCipher(tt.readAs).Decrypt(blob)
			if tt.same {
				require.NoError(t, err)
				require.Equal(t, "payload", got)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestIsEncrypted(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"cipher blob", "00112233445566778899aabbccddeeff:deadbeef", true},
		{"plaintext array", `[{"id":1,"username":"jdoe"}]`, false},
		{"plaintext with leading whitespace", "  \n[{\"id\":1}]", false},
		{"plaintext array containing colons", `[{"id":1,"email":"a@b.c"}]`, false},
		{"empty", "", false},
		{"no colon at all", "deadbeef", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsEncrypted(tt.content))
		})
	}
}
