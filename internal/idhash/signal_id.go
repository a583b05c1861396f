package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSignalID computes a deterministic signal id using SHA256.
// Formula: SHA256(token|timestamp_ms|first_source)
// Returns hex-encoded hash (64 characters).
func ComputeSignalID(token string, timestampMs int64, firstSource string) string {
	data := fmt.Sprintf("%s|%d|%s", token, timestampMs, firstSource)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
