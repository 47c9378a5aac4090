package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	relaytypes "github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/service"
	"github.com/PrecedenceMarkets/lexgate/internal/session"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
	"github.com/PrecedenceMarkets/lexgate/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0x0000000000000000000000000000000000000000000000000000000000000001"

type stubChain struct {
	code       map[common.Address][]byte
	approveAll bool
}

func (s *stubChain) CodeAt(_ context.Context, addr common.Address) ([]byte, error) {
	return s.code[addr], nil
}

func (s *stubChain) Erc20Balance(_ context.Context, _, _ common.Address) (*big.Int, error) {
	return big.NewInt(50_000_000), nil
}

func (s *stubChain) Erc20Allowance(_ context.Context, _, _, _ common.Address) (*big.Int, error) {
	if s.approveAll {
		return new(big.Int).Set(chain.MaxUint256), nil
	}
	return big.NewInt(0), nil
}

func (s *stubChain) IsApprovedForAll(_ context.Context, _, _, _ common.Address) (bool, error) {
	return s.approveAll, nil
}

type stubRelay struct {
	chain *stubChain
	safe  common.Address
}

func (s *stubRelay) Execute(_ context.Context, txs []relaytypes.Transaction, _ string) (string, error) {
	// Deployment and approvals land instantly in tests.
	s.chain.code[s.safe] = []byte{0x60}
	s.chain.approveAll = true
	return "0xtesthash", nil
}

type stubSigner struct {
	address common.Address
}

func (s *stubSigner) Address() common.Address { return s.address }

func (s *stubSigner) SignAuth(string, int64) (string, error) { return "0xsig", nil }

type stubCreds struct{}

func (stubCreds) DeriveOrCreate(context.Context, venue.Signer) (*venue.Credentials, error) {
	return &venue.Credentials{Key: "key", Secret: "secret", Passphrase: "pass"}, nil
}

type stubPoster struct{}

func (stubPoster) PostOrder(context.Context, venue.Credentials, service.OrderSpec) (*service.OrderAck, error) {
	return &service.OrderAck{OrderID: "order-77"}, nil
}

type stubFactory struct {
	relay  *stubRelay
	poster *stubPoster
}

func (f *stubFactory) Build(privateKeyHex string) (*service.Clients, error) {
	eoa, err := wallet.EOAFromPrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	safe, err := wallet.SafeFor(eoa)
	if err != nil {
		return nil, err
	}
	f.relay.safe = safe
	return &service.Clients{
		EOA:    eoa,
		Safe:   safe,
		Relay:  f.relay,
		Auth:   &stubSigner{address: eoa},
		Poster: f.poster,
	}, nil
}

type stubResolver struct{}

func (stubResolver) Market(_ context.Context, id string) (*venue.Market, error) {
	return &venue.Market{
		ID:              id,
		Question:        "Test market",
		ConditionID:     "0x1111111111111111111111111111111111111111111111111111111111111111",
		TokenIDs:        []string{"7001", "7002"},
		Outcomes:        []string{"Yes", "No"},
		EnableOrderBook: true,
		Active:          true,
	}, nil
}

type stubData struct{}

func (stubData) Positions(context.Context, string) ([]venue.DataPosition, error) {
	return []venue.DataPosition{
		{Asset: "7001", Title: "Test market", Outcome: "Yes", Size: 10, AvgPrice: 0.4, CurPrice: 0.6},
	}, nil
}

func testRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Chain:   config.ChainConfig{ID: 137},
		Trading: config.TradingConfig{MinTradeUSDC: 1, SlippageBps: 100, MinOrderSize: 1, MaxOrderSize: 10000},
		Session: config.SessionConfig{TTLHours: 168},
		Rate:    config.RateConfig{RequestsPerSecond: 1000, Burst: 1000},
	}

	chainStub := &stubChain{code: make(map[common.Address][]byte)}
	relayStub := &stubRelay{chain: chainStub}
	factory := &stubFactory{relay: relayStub, poster: &stubPoster{}}
	store := session.NewMemoryStore(7 * 24 * time.Hour)

	sessions := service.NewSessionService(store, chainStub, stubCreds{}, factory, cfg)
	orders := service.NewOrderService(sessions, stubResolver{}, nil, nil, cfg)
	positions := service.NewPositionService(chainStub, stubData{}, nil)

	router := NewRouter(cfg,
		NewSessionHandler(sessions),
		NewOrderHandler(orders, positions),
		NewHealthHandler("lexgate", ClientStatus{Clob: true, Relay: true, Chain: true}),
	)

	eoa, err := wallet.EOAFromPrivateKey(testKey)
	require.NoError(t, err)
	safe, err := wallet.SafeFor(eoa)
	require.NoError(t, err)
	return router, safe.Hex()
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLifecycleEndToEnd(t *testing.T) {
	router, safeHex := testRouter(t)
	keyBody := map[string]string{"userPrivateKey": testKey}

	rec := doJSON(router, http.MethodPost, "/init-session", keyBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var initResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))
	assert.Equal(t, true, initResp["success"])
	assert.Equal(t, safeHex, initResp["safeAddress"])

	rec = doJSON(router, http.MethodPost, "/deploy-safe", keyBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(router, http.MethodPost, "/derive-credentials", keyBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var credsResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &credsResp))
	assert.Equal(t, true, credsResp["hasCredentials"])
	assert.NotContains(t, rec.Body.String(), "secret", "credentials are never echoed")

	rec = doJSON(router, http.MethodPost, "/set-approvals", keyBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(router, http.MethodPost, "/place-order", map[string]interface{}{
		"safeAddress": safeHex,
		"marketId":    "512",
		"side":        "BUY",
		"size":        10,
		"price":       0.45,
		"outcome":     "Yes",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var orderResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orderResp))
	assert.Equal(t, "order-77", orderResp["orderId"])
}

func TestMissingKeyIsValidationError(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, http.MethodPost, "/init-session", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Message, "userPrivateKey")
}

func TestPlaceOrderWithoutSessionIsPrecondition(t *testing.T) {
	router, safeHex := testRouter(t)

	rec := doJSON(router, http.MethodPost, "/place-order", map[string]interface{}{
		"safeAddress": safeHex,
		"marketId":    "512",
		"side":        "BUY",
		"size":        10,
		"price":       0.45,
		"outcome":     "Yes",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PRECONDITION")
}

func TestRedeemEndpoint(t *testing.T) {
	router, safeHex := testRouter(t)
	keyBody := map[string]string{"userPrivateKey": testKey}
	doJSON(router, http.MethodPost, "/init-session", keyBody)

	rec := doJSON(router, http.MethodPost, "/redeem-position", map[string]interface{}{
		"safeAddress": safeHex,
		"conditionId": "0x1111111111111111111111111111111111111111111111111111111111111111",
		"indexSets":   []int64{1, 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "0xtesthash")
}

func TestPositionsEndpoint(t *testing.T) {
	router, safeHex := testRouter(t)

	rec := doJSON(router, http.MethodGet, "/positions/"+safeHex, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "50.00", body["usdcBalance"])
}

func TestOrderBookEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, http.MethodGet, "/order-book/512", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Test market")
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "lexgate", body["service"])
	clients := body["clients"].(map[string]interface{})
	assert.Equal(t, true, clients["clob"])
}
