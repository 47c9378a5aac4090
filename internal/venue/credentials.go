package venue

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	authDomainName = "ClobAuthDomain"
	authVersion    = "1"
	authMessage    = "This message attests that I control the given wallet"

	deriveAPIKeyPath = "/auth/derive-api-key"
	createAPIKeyPath = "/auth/api-key"
)

// Credentials are the venue's L2 API credentials. A result is only usable
// when all three fields are present.
type Credentials struct {
	Key        string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

func (c *Credentials) Complete() bool {
	return c != nil && c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// Signer produces the venue's L1 auth signature. Kept minimal so tests can
// count how many times a key is exercised.
type Signer interface {
	Address() common.Address
	SignAuth(timestamp string, nonce int64) (string, error)
}

// CredentialSource derives or creates L2 credentials for a wallet.
type CredentialSource interface {
	DeriveOrCreate(ctx context.Context, signer Signer) (*Credentials, error)
}

type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID int64
}

func NewPrivateKeySigner(privateKeyHex string, chainID int64) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

func (s *PrivateKeySigner) Address() common.Address {
	return s.address
}

// SignAuth signs the venue's fixed attestation payload (EIP-712).
func (s *PrivateKeySigner) SignAuth(timestamp string, nonce int64) (string, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    authDomainName,
			Version: authVersion,
			ChainId: math.NewHexOrDecimal256(s.chainID),
		},
		Message: map[string]interface{}{
			"address":   s.address.Hex(),
			"timestamp": timestamp,
			"nonce":     big.NewInt(nonce),
			"message":   authMessage,
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return "", fmt.Errorf("hash domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return "", fmt.Errorf("hash message: %w", err)
	}

	rawData := []byte("\x19\x01")
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)
	hash := crypto.Keccak256Hash(rawData)

	signature, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return "", fmt.Errorf("sign auth payload: %w", err)
	}
	if signature[64] < 27 {
		signature[64] += 27
	}
	return "0x" + common.Bytes2Hex(signature), nil
}

// CredentialClient talks to the venue's auth endpoints.
type CredentialClient struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

func NewCredentialClient(baseURL string, httpClient *http.Client) *CredentialClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &CredentialClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		now:     time.Now,
	}
}

// DeriveOrCreate signs the attestation once and uses the same signed headers
// for both the derive attempt and, if needed, the create fallback. The
// wallet key is exercised exactly once per call.
func (c *CredentialClient) DeriveOrCreate(ctx context.Context, signer Signer) (*Credentials, error) {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	signature, err := signer.SignAuth(timestamp, 0)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"POLY_ADDRESS":   signer.Address().Hex(),
		"POLY_SIGNATURE": signature,
		"POLY_TIMESTAMP": timestamp,
		"POLY_NONCE":     "0",
	}

	creds, status, err := c.authRequest(ctx, http.MethodGet, deriveAPIKeyPath, headers)
	if err == nil && creds.Complete() {
		return creds, nil
	}
	if err != nil && status != http.StatusBadRequest && status != http.StatusNotFound && status != 0 {
		return nil, fmt.Errorf("derive api key: %w", err)
	}

	creds, _, err = c.authRequest(ctx, http.MethodPost, createAPIKeyPath, headers)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	if !creds.Complete() {
		return nil, fmt.Errorf("venue returned incomplete credentials")
	}
	return creds, nil
}

func (c *CredentialClient) authRequest(ctx context.Context, method, path string, headers map[string]string) (*Credentials, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var creds Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode credentials: %w", err)
	}
	return &creds, resp.StatusCode, nil
}
