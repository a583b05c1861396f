package feed

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const mintAddressLen = 32

// ValidateMint checks that addr is a well-formed Solana mint address:
// base58 text decoding to exactly 32 bytes.
func ValidateMint(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty mint address")
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode mint address: %w", err)
	}
	if len(raw) != mintAddressLen {
		return fmt.Errorf("mint address is %d bytes, want %d", len(raw), mintAddressLen)
	}
	return nil
}

// IsOnCurve reports whether addr is a valid ed25519 curve point. Wallet
// keys are on-curve; program-derived addresses (most pump.fun mints) are
// not. Returns false for malformed addresses.
func IsOnCurve(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != mintAddressLen {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
