package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(token|entry_time_ms|exit_time_ms|signal_id)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(token string, entryTimeMs, exitTimeMs int64, signalID string) string {
	data := fmt.Sprintf("%s|%d|%d|%s", token, entryTimeMs, exitTimeMs, signalID)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeRunID computes a deterministic backtest run id from config values
// and the replay range.
// Formula: SHA256(first_ts|last_ts|signal_count|config_fingerprint)
func ComputeRunID(firstTs, lastTs int64, signalCount int, configFingerprint string) string {
	data := fmt.Sprintf("%d|%d|%d|%s", firstTs, lastTs, signalCount, configFingerprint)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
