// Package idgen generates identifiers for issues, comments and audit entries.
package idgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultPrefix is used when no issue prefix is configured.
const DefaultPrefix = "mj"

// DefaultLength is the number of base36 characters after the prefix.
const DefaultLength = 6

// EncodeBase36 converts a byte slice to a base36 string of exactly length
// characters, zero-padded on the left and keeping the least significant
// digits when the value is longer.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	var result strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		result.WriteByte(chars[i])
	}

	str := result.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// IssueID creates a hash-based issue ID such as "mj-4k2z9a".
// The nonce lets callers retry on collision.
func IssueID(prefix, projectID, title, reporter string, timestamp time.Time, length, nonce int) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if length < 3 || length > 8 {
		length = DefaultLength
	}
	content := fmt.Sprintf("%s|%s|%s|%d|%d", projectID, title, reporter, timestamp.UnixNano(), nonce)
	hash := sha256.Sum256([]byte(content))

	// 5 bytes = 40 bits, enough for 8 base36 chars.
	return fmt.Sprintf("%s-%s", prefix, EncodeBase36(hash[:5], length))
}

// NewCommentID returns a random comment ID.
func NewCommentID() string {
	return "c-" + uuid.NewString()
}

// NewEntryID returns a random audit entry ID.
func NewEntryID() string {
	return uuid.NewString()
}
