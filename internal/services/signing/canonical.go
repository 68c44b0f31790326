package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Canonicalize builds the string that is signed and verified:
//
//	{METHOD}:{path}:{lowercase hex sha256(body)}:{timestamp}
//
// body must be the exact bytes on the wire. For outbound requests that is the
// minified JSON actually sent; for callbacks it is the raw received body.
func Canonicalize(method, path string, body []byte, timestamp string) string {
	var b strings.Builder
	b.Grow(len(method) + len(path) + sha256.Size*2 + len(timestamp) + 3)
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(':')
	b.WriteString(NormalizePath(path))
	b.WriteByte(':')
	b.WriteString(BodyHash(body))
	b.WriteByte(':')
	b.WriteString(timestamp)
	return b.String()
}

// NormalizePath prefixes a missing leading slash. An already normalized path
// is returned unchanged.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// BodyHash is the lowercase hex SHA-256 of body.
func BodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
