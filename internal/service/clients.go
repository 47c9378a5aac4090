package service

import (
	"context"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	"github.com/PrecedenceMarkets/lexgate/internal/relay"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
	"github.com/ethereum/go-ethereum/common"
)

// OrderSpec is a fully resolved order: token, normalized price and size,
// and the exchange flavor it settles on.
type OrderSpec struct {
	TokenID string
	Side    string
	Price   float64
	Size    float64
	Type    clobtypes.OrderType
	NegRisk bool
}

type OrderAck struct {
	OrderID string
}

// OrderPoster signs and posts one exchange order. Implementations hold the
// wallet key; exactly one wallet signature per posted order.
type OrderPoster interface {
	PostOrder(ctx context.Context, creds venue.Credentials, spec OrderSpec) (*OrderAck, error)
}

// Clients are the single-owner handles built from one user key. They are
// cached per session and never shared across EOAs.
type Clients struct {
	EOA    common.Address
	Safe   common.Address
	Relay  relay.Executor
	Auth   venue.Signer
	Poster OrderPoster
}

// ClientFactory turns a user private key into the session's client bundle.
type ClientFactory interface {
	Build(privateKeyHex string) (*Clients, error)
}
