package blockchain

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

// addressFromKey derives the checksummed hex address of a private key.
func addressFromKey(key *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// AddressFromKey is the exported form used by the payment executor to
// report which wallet actually paid.
func AddressFromKey(key *ecdsa.PrivateKey) string {
	return addressFromKey(key)
}

// ParsePrivateKey parses a hex-encoded secp256k1 private key.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(hexKey)
}
