package wallet

import (
	"fmt"
	"strings"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EOAFromPrivateKey parses a hex private key (0x prefix optional) and
// returns the controlling EOA address.
func EOAFromPrivateKey(privateKeyHex string) (common.Address, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if trimmed == "" {
		return common.Address{}, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// SafeFor maps an EOA to its deterministic Safe address. Pure CREATE2
// derivation, no chain access: the same EOA always yields the same Safe
// whether or not the Safe has been deployed yet.
func SafeFor(eoa common.Address) (common.Address, error) {
	return auth.DeriveSafeWallet(eoa)
}

// SafeForHex is SafeFor with hex-string input. Address casing does not
// affect the result.
func SafeForHex(eoa string) (common.Address, error) {
	if !common.IsHexAddress(eoa) {
		return common.Address{}, fmt.Errorf("invalid address: %s", eoa)
	}
	return SafeFor(common.HexToAddress(eoa))
}
