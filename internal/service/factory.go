package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	relayer "github.com/GoPolymarket/go-builder-relayer-client"
	"github.com/GoPolymarket/polymarket-go-sdk"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/ordersigner"
	"github.com/PrecedenceMarkets/lexgate/internal/relay"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
	"github.com/PrecedenceMarkets/lexgate/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

type clientFactory struct {
	cfg        *config.Config
	builderCfg *relayer.BuilderConfig
	httpClient *http.Client
}

func NewClientFactory(cfg *config.Config) ClientFactory {
	builderCfg := &relayer.BuilderConfig{
		Local: &relayer.BuilderCredentials{
			Key:        cfg.Builder.ApiKey,
			Secret:     cfg.Builder.ApiSecret,
			Passphrase: cfg.Builder.ApiPassphrase,
		},
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 10 * time.Second,
	}
	return &clientFactory{cfg: cfg, builderCfg: builderCfg, httpClient: httpClient}
}

func (f *clientFactory) Build(privateKeyHex string) (*Clients, error) {
	eoa, err := wallet.EOAFromPrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	safe, err := wallet.SafeFor(eoa)
	if err != nil {
		return nil, fmt.Errorf("derive safe: %w", err)
	}

	relayClient, err := relay.New(f.cfg.Relayer.BaseURL, f.cfg.Chain.ID, privateKeyHex, f.builderCfg)
	if err != nil {
		return nil, err
	}

	authSigner, err := venue.NewPrivateKeySigner(privateKeyHex, f.cfg.Chain.ID)
	if err != nil {
		return nil, err
	}

	poster, err := f.newPoster(privateKeyHex, safe)
	if err != nil {
		return nil, err
	}

	return &Clients{
		EOA:    eoa,
		Safe:   safe,
		Relay:  relayClient,
		Auth:   authSigner,
		Poster: poster,
	}, nil
}

type clobPoster struct {
	cfg       *config.Config
	http      *http.Client
	safe      common.Address
	sdkSigner auth.Signer
	stdSigner *ordersigner.Signer
	negSigner *ordersigner.Signer
}

func (f *clientFactory) newPoster(privateKeyHex string, safe common.Address) (*clobPoster, error) {
	pk := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")

	sdkSigner, err := auth.NewPrivateKeySigner(pk, f.cfg.Chain.ID)
	if err != nil {
		return nil, fmt.Errorf("sdk signer: %w", err)
	}
	stdSigner, err := ordersigner.NewSigner(pk, f.cfg.Chain.ID, chain.Exchange)
	if err != nil {
		return nil, err
	}
	negSigner, err := ordersigner.NewSigner(pk, f.cfg.Chain.ID, chain.NegRiskExchange)
	if err != nil {
		return nil, err
	}

	return &clobPoster{
		cfg:       f.cfg,
		http:      f.httpClient,
		safe:      safe,
		sdkSigner: sdkSigner,
		stdSigner: stdSigner,
		negSigner: negSigner,
	}, nil
}

func (p *clobPoster) newClient(signer auth.Signer, apiKey *auth.APIKey) *polymarket.Client {
	opts := []polymarket.Option{
		polymarket.WithUseServerTime(true),
		polymarket.WithHTTPClient(p.http),
	}
	if p.cfg.Builder.ApiKey != "" {
		opts = append(opts, polymarket.WithBuilderAttribution(
			p.cfg.Builder.ApiKey,
			p.cfg.Builder.ApiSecret,
			p.cfg.Builder.ApiPassphrase,
		))
	}
	client := polymarket.NewClient(opts...)
	if signer != nil && apiKey != nil {
		client = client.WithAuth(signer, apiKey)
	}
	return client
}

// PostOrder builds the signable order, rewrites the maker to the Safe with
// a Gnosis Safe signature type, signs once, and posts.
func (p *clobPoster) PostOrder(ctx context.Context, creds venue.Credentials, spec OrderSpec) (*OrderAck, error) {
	buildClient := p.newClient(nil, nil)

	builder := clob.NewOrderBuilder(buildClient.CLOB, p.sdkSigner).
		TokenID(spec.TokenID).
		Price(spec.Price).
		Size(spec.Size).
		Side(spec.Side).
		OrderType(spec.Type)

	signable, err := builder.BuildSignableWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}

	sigType := int(auth.SignatureGnosisSafe)
	signable.Order.SignatureType = &sigType
	signable.Order.Maker = p.safe

	signer := p.stdSigner
	if spec.NegRisk {
		signer = p.negSigner
	}
	signature, err := signer.SignOrder(toSigningOrder(signable.Order))
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	apiKey := &auth.APIKey{
		Key:        creds.Key,
		Secret:     creds.Secret,
		Passphrase: creds.Passphrase,
	}
	signed := &clobtypes.SignedOrder{
		Order:     *signable.Order,
		Signature: signature,
		Owner:     apiKey.Key,
		OrderType: signable.OrderType,
	}

	execClient := p.newClient(p.sdkSigner, apiKey)
	resp, err := execClient.CLOB.PostOrder(ctx, signed)
	if err != nil {
		return nil, err
	}
	return &OrderAck{OrderID: resp.ID}, nil
}

func toSigningOrder(o *clobtypes.Order) *ordersigner.Order {
	side := uint8(0)
	if strings.ToUpper(o.Side) == "SELL" {
		side = 1
	}
	sigType := uint8(0)
	if o.SignatureType != nil {
		sigType = uint8(*o.SignatureType)
	}
	return &ordersigner.Order{
		Salt:          o.Salt.Int,
		Maker:         o.Maker,
		Signer:        o.Signer,
		Taker:         o.Taker,
		TokenID:       o.TokenID.Int,
		MakerAmount:   o.MakerAmount.BigInt(),
		TakerAmount:   o.TakerAmount.BigInt(),
		Expiration:    o.Expiration.Int,
		Nonce:         o.Nonce.Int,
		FeeRateBps:    o.FeeRateBps.BigInt(),
		Side:          side,
		SignatureType: sigType,
	}
}
