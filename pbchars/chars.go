// Package pbchars loads the character-frequency file that seeds the
// byte-guessing order: 256 hex byte tokens, whitespace separated, most
// likely byte first, covering every byte value exactly once.
package pbchars

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrCharCount reports a charset file with a token count other than 256.
	ErrCharCount = errors.New("charset needs exactly 256 byte values")

	// ErrNotPermutation reports a charset file containing a byte value more
	// than once.
	ErrNotPermutation = errors.New("charset must contain each byte value exactly once")
)

// Load reads a charset permutation from the file at the given path.
// The file format is text: 256 two-hex-digit tokens separated by arbitrary
// whitespace, ordered most likely first. Load rejects files with the wrong
// token count, malformed tokens, or duplicate byte values.
func Load(path string) ([256]byte, error) {
	var perm [256]byte

	raw, err := os.ReadFile(path)
	if err != nil {
		return perm, errors.Wrapf(err, "loading charset file %q", path)
	}

	return Parse(string(raw))
}

// Parse parses a charset permutation from its textual form. See Load for
// the format.
func Parse(s string) ([256]byte, error) {
	var (
		perm   [256]byte
		tokens = strings.Fields(s)
	)
	if len(tokens) != len(perm) {
		return perm, errors.Wrapf(ErrCharCount, "got %d", len(tokens))
	}

	var seen [256]bool
	for i, tok := range tokens {
		b, err := hex.DecodeString(tok)
		if err != nil || len(b) != 1 {
			return perm, errors.Errorf("malformed charset token %q at position %d", tok, i)
		}

		if seen[b[0]] {
			return perm, errors.Wrapf(ErrNotPermutation, "byte %#02x repeats", b[0])
		}
		seen[b[0]] = true
		perm[i] = b[0]
	}

	return perm, nil
}
