package hash

import "crypto/sha256"

// Sum256 returns the SHA-256 digest as a fixed-size array, which is the shape
// the ledger's XDR Hash and Uint256 fields expect.
func Sum256(message []byte) [32]byte {
	return sha256.Sum256(message)
}
