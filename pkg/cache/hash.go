package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a namespaced cache key from a prefix ("analysis",
// "artifact") and the parts that make the entry unique, such as recording
// content hashes and render options.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash fingerprints raw bytes, typically a CSV recording, as a 64-char
// hex SHA-256. Recordings with the same fingerprint render to the same
// artifacts, which is what makes report caching sound.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
