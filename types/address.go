package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// AccountHash identifies a member. It is the Keccak256 digest of the
// member's ed25519 public key.
type AccountHash = common.Hash

func AccountFromPubKey(pubKey []byte) AccountHash {
	return crypto.Keccak256Hash(pubKey)
}

func ParseAccountHash(s string) (AccountHash, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*common.HashLength {
		return AccountHash{}, fmt.Errorf("invalid account hash length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return AccountHash{}, fmt.Errorf("invalid account hash %q: %w", s, err)
	}
	return common.BytesToHash(b), nil
}

// ParseAmount parses a decimal reputation or funding amount.
func ParseAmount(s string) (uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return *v, nil
}
