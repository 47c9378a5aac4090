package ordersigner

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	domainName    = "Polymarket CTF Exchange"
	domainVersion = "1"
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	orderTypeHash  = crypto.Keccak256Hash([]byte("Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"))
)

// Order is the exchange order struct in signing layout.
type Order struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          uint8
	SignatureType uint8
}

// Signer signs exchange orders with a pre-computed domain separator. The
// verifying contract is a parameter because standard and neg-risk markets
// settle on different exchanges.
type Signer struct {
	key             *ecdsa.PrivateKey
	address         common.Address
	chainID         *big.Int
	domainSeparator common.Hash
}

func NewSigner(privateKeyHex string, chainID int64, verifyingContract common.Address) (*Signer, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	// keccak256(abi.encode(typeHash, keccak256(name), keccak256(version), chainId, verifyingContract))
	domainData := make([]byte, 32*5)
	copy(domainData[0:32], domainTypeHash.Bytes())
	copy(domainData[32:64], crypto.Keccak256Hash([]byte(domainName)).Bytes())
	copy(domainData[64:96], crypto.Keccak256Hash([]byte(domainVersion)).Bytes())
	copy(domainData[96:128], math.U256Bytes(big.NewInt(chainID)))
	copy(domainData[128+12:160], verifyingContract.Bytes())

	return &Signer{
		key:             key,
		address:         address,
		chainID:         big.NewInt(chainID),
		domainSeparator: crypto.Keccak256Hash(domainData),
	}, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

// SignOrder hashes the order per EIP-712 and signs it, returning the
// 65-byte signature with v in {27, 28}.
func (s *Signer) SignOrder(order *Order) (string, error) {
	structHash := s.hashOrder(order)
	finalHash := crypto.Keccak256([]byte{0x19, 0x01}, s.domainSeparator.Bytes(), structHash)

	signature, err := crypto.Sign(finalHash, s.key)
	if err != nil {
		return "", err
	}
	if signature[64] < 27 {
		signature[64] += 27
	}
	return "0x" + common.Bytes2Hex(signature), nil
}

func (s *Signer) hashOrder(order *Order) []byte {
	data := make([]byte, 32*13)

	copy(data[0:32], orderTypeHash.Bytes())
	if order.Salt != nil {
		copy(data[32:64], math.U256Bytes(order.Salt))
	}
	copy(data[64+12:96], order.Maker.Bytes())
	copy(data[96+12:128], order.Signer.Bytes())
	copy(data[128+12:160], order.Taker.Bytes())
	if order.TokenID != nil {
		copy(data[160:192], math.U256Bytes(order.TokenID))
	}
	if order.MakerAmount != nil {
		copy(data[192:224], math.U256Bytes(order.MakerAmount))
	}
	if order.TakerAmount != nil {
		copy(data[224:256], math.U256Bytes(order.TakerAmount))
	}
	if order.Expiration != nil {
		copy(data[256:288], math.U256Bytes(order.Expiration))
	}
	if order.Nonce != nil {
		copy(data[288:320], math.U256Bytes(order.Nonce))
	}
	if order.FeeRateBps != nil {
		copy(data[320:352], math.U256Bytes(order.FeeRateBps))
	}
	copy(data[352:384], math.U256Bytes(big.NewInt(int64(order.Side))))
	copy(data[384:416], math.U256Bytes(big.NewInt(int64(order.SignatureType))))

	return crypto.Keccak256(data)
}
