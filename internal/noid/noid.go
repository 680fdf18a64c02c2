// Package noid implements the NOID (Nice Opaque Identifier) primitives that
// ARK strings are built from: random betanumeric suffix generation, the
// classical NOID check-digit algorithm, and structural parsing of
// fully-qualified ARK strings.
package noid

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Alphabet is the betanumeric symbol set used for generated suffixes and for
// check-digit arithmetic: digits plus lowercase consonants, excluding vowels
// and visually ambiguous letters (l). It is fixed for the life of the system;
// changing it would invalidate every previously computed check digit.
const Alphabet = "0123456789bcdfghjkmnpqrstvwxz"

// ErrInvalidArk is returned by ParseArk for inputs that are not structurally
// valid ARK strings.
var ErrInvalidArk = errors.New("invalid ark")

// Generate returns a random string of length symbols drawn uniformly from
// Alphabet. The underlying source is crypto/rand; rejection sampling keeps
// the per-symbol distribution unbiased.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("noid length must be positive, got %d", length)
	}

	// Largest multiple of len(Alphabet) that fits in a byte; bytes at or
	// above this value are discarded to avoid modulo bias.
	limit := byte(256 - 256%len(Alphabet))

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// CheckDigit computes the trailing check character for base using the NOID
// scheme: each character maps to its ordinal in Alphabet (lowercased; 0 for
// characters outside the alphabet, such as separators), the ordinals are
// summed with weight position+1 counting from the left, and the sum mod
// len(Alphabet) indexes back into Alphabet. Detects single-character
// substitutions and adjacent transpositions.
func CheckDigit(base string) byte {
	sum := 0
	for i, r := range strings.ToLower(base) {
		ord := strings.IndexRune(Alphabet, r)
		if ord < 0 {
			ord = 0
		}
		sum += (i + 1) * ord
	}
	return Alphabet[sum%len(Alphabet)]
}

// Verify reports whether the last character of s is the correct check digit
// for everything before it.
func Verify(s string) bool {
	if len(s) < 2 {
		return false
	}
	return CheckDigit(s[:len(s)-1]) == s[len(s)-1]
}

// ParseArk splits a fully-qualified ARK string into its scheme, NAAN, and
// assigned name. Accepted forms include "ark:/12345/x7qc2tpk3",
// "ark:12345/x7qc2tpk3", "/ark:/12345/x7qc2tpk3", and the bare
// "12345/x7qc2tpk3". The assigned name is everything after the first slash
// following the NAAN and still contains the shoulder; no check-digit or
// shoulder validation happens here.
func ParseArk(input string) (scheme string, naan int64, assignedName string, err error) {
	rest := strings.TrimPrefix(input, "/")
	if strings.HasPrefix(rest, "ark:") {
		scheme = "ark"
		rest = strings.TrimPrefix(rest, "ark:")
		rest = strings.TrimPrefix(rest, "/")
	}

	naanPart, namePart, found := strings.Cut(rest, "/")
	if !found {
		return "", 0, "", fmt.Errorf("%w: %q has no naan/name separator", ErrInvalidArk, input)
	}

	naan, err = strconv.ParseInt(naanPart, 10, 64)
	if err != nil || naan < 0 {
		return "", 0, "", fmt.Errorf("%w: naan %q is not a non-negative integer", ErrInvalidArk, naanPart)
	}
	if namePart == "" {
		return "", 0, "", fmt.Errorf("%w: %q has an empty assigned name", ErrInvalidArk, input)
	}
	return scheme, naan, namePart, nil
}
