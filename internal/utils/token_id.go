package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CalTokenID derives the 32-byte token id for a "secondary.root" name pair.
// Layout matches the on-chain derivation:
//
//	firstHash = keccak256(abi.encode(address(0), keccak256(rootName)))
//	tokenId   = keccak256(abi.encode(firstHash, keccak256(secondaryName)))
//
// abi.encode of (address, bytes32) is the 12-zero-byte-padded address
// followed by the hash, so the root node hangs off the null authority and
// the secondary label keys a leaf under it. Any caller holding only the two
// labels can reproduce the id bit-for-bit.
func CalTokenID(rootName, secondaryName string) common.Hash {
	rootLabelHash := crypto.Keccak256([]byte(rootName))

	first := make([]byte, 64)
	// bytes 0-31: address(0) left-padded to 32 bytes (already zeros)
	copy(first[32:], rootLabelHash)
	firstHash := crypto.Keccak256(first)

	second := make([]byte, 64)
	copy(second[0:32], firstHash)
	copy(second[32:], crypto.Keccak256([]byte(secondaryName)))

	return crypto.Keccak256Hash(second)
}

// CalTokenIDHex returns the token id as a 0x-prefixed lowercase hex string,
// the canonical form used in storage and API payloads.
func CalTokenIDHex(rootName, secondaryName string) string {
	return CalTokenID(rootName, secondaryName).Hex()
}

// NormalizeTokenID lowercases and 0x-prefixes a caller-supplied token id so
// lookups hit the canonical stored form. Returns false for anything that is
// not 32 bytes of hex.
func NormalizeTokenID(tokenID string) (string, bool) {
	s := strings.TrimPrefix(strings.ToLower(tokenID), "0x")
	if len(s) != 64 {
		return "", false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return "0x" + s, true
}

// IsZeroTokenID reports whether the id is absent or the all-zero sentinel.
func IsZeroTokenID(tokenID string) bool {
	s := strings.TrimPrefix(strings.ToLower(tokenID), "0x")
	if s == "" {
		return true
	}
	return strings.Trim(s, "0") == ""
}

// RootLabelHash is the keccak256 of a bare root label, used as the default
// sub-root creator id for roots seeded at install time.
func RootLabelHash(rootName string) common.Hash {
	return crypto.Keccak256Hash([]byte(rootName))
}
