package service

import (
	"context"
	"math/big"
	"sync"
	"time"

	relaytypes "github.com/GoPolymarket/go-builder-relayer-client/pkg/types"
	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/session"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
	"github.com/PrecedenceMarkets/lexgate/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

const (
	testKeyA = "0x0000000000000000000000000000000000000000000000000000000000000001"
	testKeyB = "0x0000000000000000000000000000000000000000000000000000000000000002"
)

func testConfig() *config.Config {
	return &config.Config{
		Chain:   config.ChainConfig{ID: 137},
		Trading: config.TradingConfig{MinTradeUSDC: 1, SlippageBps: 100, MinOrderSize: 1, MaxOrderSize: 10000},
		Session: config.SessionConfig{TTLHours: 168},
	}
}

type fakeChain struct {
	mu         sync.Mutex
	code       map[common.Address][]byte
	balances   map[string]*big.Int
	allowances map[string]*big.Int
	operators  map[string]bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		code:       make(map[common.Address][]byte),
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]*big.Int),
		operators:  make(map[string]bool),
	}
}

func balKey(token, owner common.Address) string {
	return token.Hex() + "|" + owner.Hex()
}

func allowKey(token, owner, spender common.Address) string {
	return token.Hex() + "|" + owner.Hex() + "|" + spender.Hex()
}

func (f *fakeChain) setCode(addr common.Address, code []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code[addr] = code
}

func (f *fakeChain) setBalance(token, owner common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[balKey(token, owner)] = amount
}

func (f *fakeChain) setAllowance(token, owner, spender common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowances[allowKey(token, owner, spender)] = amount
}

func (f *fakeChain) setOperator(token, owner, operator common.Address, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.operators[allowKey(token, owner, operator)] = ok
}

func (f *fakeChain) CodeAt(_ context.Context, addr common.Address) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code[addr], nil
}

func (f *fakeChain) Erc20Balance(_ context.Context, token, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bal, ok := f.balances[balKey(token, owner)]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) Erc20Allowance(_ context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if allowance, ok := f.allowances[allowKey(token, owner, spender)]; ok {
		return new(big.Int).Set(allowance), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) IsApprovedForAll(_ context.Context, token, owner, operator common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.operators[allowKey(token, owner, operator)], nil
}

type relayCall struct {
	txs  []relaytypes.Transaction
	desc string
}

type fakeRelay struct {
	mu        sync.Mutex
	calls     []relayCall
	err       error
	txID      string
	onExecute func(txs []relaytypes.Transaction)
}

func (f *fakeRelay) Execute(_ context.Context, txs []relaytypes.Transaction, desc string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, relayCall{txs: txs, desc: desc})
	hook := f.onExecute
	err := f.err
	txID := f.txID
	f.mu.Unlock()

	if hook != nil {
		hook(txs)
	}
	if err != nil {
		return "", err
	}
	if txID == "" {
		txID = "0xrelayed"
	}
	return txID, nil
}

func (f *fakeRelay) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type countingAuthSigner struct {
	mu      sync.Mutex
	signs   int
	address common.Address
}

func (s *countingAuthSigner) Address() common.Address {
	return s.address
}

func (s *countingAuthSigner) SignAuth(timestamp string, nonce int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signs++
	return "0xauthsig", nil
}

type fakeCreds struct {
	mu    sync.Mutex
	calls int
	creds *venue.Credentials
	err   error
}

func (f *fakeCreds) DeriveOrCreate(_ context.Context, _ venue.Signer) (*venue.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.creds == nil {
		return &venue.Credentials{Key: "key", Secret: "secret", Passphrase: "pass"}, nil
	}
	return f.creds, nil
}

func (f *fakeCreds) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePoster struct {
	mu    sync.Mutex
	specs []OrderSpec
	err   error
}

func (f *fakePoster) PostOrder(_ context.Context, _ venue.Credentials, spec OrderSpec) (*OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	if f.err != nil {
		return nil, f.err
	}
	return &OrderAck{OrderID: "order-1"}, nil
}

// fakeFactory builds real derived addresses with fake transports.
type fakeFactory struct {
	relay  *fakeRelay
	auth   *countingAuthSigner
	poster *fakePoster
}

func (f *fakeFactory) Build(privateKeyHex string) (*Clients, error) {
	eoa, err := wallet.EOAFromPrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	safe, err := wallet.SafeFor(eoa)
	if err != nil {
		return nil, err
	}
	f.auth.address = eoa
	return &Clients{
		EOA:    eoa,
		Safe:   safe,
		Relay:  f.relay,
		Auth:   f.auth,
		Poster: f.poster,
	}, nil
}

type testEnv struct {
	store   *session.MemoryStore
	chain   *fakeChain
	relay   *fakeRelay
	creds   *fakeCreds
	poster  *fakePoster
	auth    *countingAuthSigner
	svc     *SessionService
	safe    common.Address
	eoa     common.Address
	safeHex string
}

func newTestEnv() *testEnv {
	store := session.NewMemoryStore(7 * 24 * time.Hour)
	chainFake := newFakeChain()
	relayFake := &fakeRelay{}
	credsFake := &fakeCreds{}
	posterFake := &fakePoster{}
	authFake := &countingAuthSigner{}
	factory := &fakeFactory{relay: relayFake, auth: authFake, poster: posterFake}

	svc := NewSessionService(store, chainFake, credsFake, factory, testConfig())

	eoa, _ := wallet.EOAFromPrivateKey(testKeyA)
	safe, _ := wallet.SafeFor(eoa)

	return &testEnv{
		store:   store,
		chain:   chainFake,
		relay:   relayFake,
		creds:   credsFake,
		poster:  posterFake,
		auth:    authFake,
		svc:     svc,
		safe:    safe,
		eoa:     eoa,
		safeHex: safe.Hex(),
	}
}

// readySession marks every lifecycle stage complete for the order tests.
func (e *testEnv) readySession(ctx context.Context) *model.Session {
	sess, _, _ := e.store.Load(ctx, e.eoa.Hex())
	if sess == nil {
		sess = &model.Session{
			EOAAddress:  e.eoa.Hex(),
			SafeAddress: e.safeHex,
			Stages:      make(map[string]model.StageStatus),
		}
	}
	sess.Deployed = true
	sess.Approved = true
	sess.ApiKey = "key"
	sess.ApiSecret = "secret"
	sess.ApiPassphrase = "pass"
	sess.HasCreds = true
	_ = e.store.Save(ctx, sess)
	return sess
}
