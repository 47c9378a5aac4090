package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/model"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/metrics"
	"github.com/PrecedenceMarkets/lexgate/internal/session"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
)

// SessionService drives the onboarding lifecycle: derive, deploy,
// credentials, approvals, collateral. Stage runs for the same EOA
// serialize on a per-EOA lock; concurrent duplicates observe the first
// run's saved result instead of racing it.
type SessionService struct {
	store   session.Store
	chain   chain.Reader
	creds   venue.CredentialSource
	factory ClientFactory
	cfg     *config.Config

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	clients   map[string]*Clients
	safeIndex map[string]string
}

func NewSessionService(store session.Store, chainReader chain.Reader, creds venue.CredentialSource, factory ClientFactory, cfg *config.Config) *SessionService {
	return &SessionService{
		store:     store,
		chain:     chainReader,
		creds:     creds,
		factory:   factory,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
		clients:   make(map[string]*Clients),
		safeIndex: make(map[string]string),
	}
}

// begin resolves the caller's clients and session under the per-EOA lock.
// The returned release func must be called once the stage is done.
func (s *SessionService) begin(ctx context.Context, privateKeyHex string) (*Clients, *model.Session, func(), error) {
	clients, err := s.factory.Build(privateKeyHex)
	if err != nil {
		return nil, nil, nil, apperrors.New(apperrors.ErrValidation, "invalid private key", err)
	}

	key := strings.ToLower(clients.EOA.Hex())

	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.clients[key] = clients
	s.safeIndex[strings.ToLower(clients.Safe.Hex())] = key
	s.mu.Unlock()

	lock.Lock()
	release := lock.Unlock

	sess, found, err := s.store.Load(ctx, key)
	if err != nil {
		release()
		return nil, nil, nil, apperrors.Wrap(err)
	}
	if !found {
		now := time.Now().UTC()
		sess = &model.Session{
			EOAAddress:  clients.EOA.Hex(),
			SafeAddress: clients.Safe.Hex(),
			Stages:      make(map[string]model.StageStatus),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	if sess.Stages == nil {
		sess.Stages = make(map[string]model.StageStatus)
	}
	return clients, sess, release, nil
}

func (s *SessionService) save(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		return apperrors.Wrap(err)
	}
	return nil
}

// InitSession derives the wallet pair and creates (or refreshes) the
// session record. Pure derivation plus a store write, no chain access.
func (s *SessionService) InitSession(ctx context.Context, privateKeyHex string) (*model.SessionResponse, error) {
	clients, sess, release, err := s.begin(ctx, privateKeyHex)
	if err != nil {
		metrics.SessionInits.WithLabelValues("error").Inc()
		return nil, err
	}
	defer release()

	if err := s.save(ctx, sess); err != nil {
		metrics.SessionInits.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.SessionInits.WithLabelValues("ok").Inc()
	logger.Info("session initialized",
		"eoa", clients.EOA.Hex(),
		"safe", clients.Safe.Hex(),
	)
	return &model.SessionResponse{
		Success:     true,
		EOAAddress:  clients.EOA.Hex(),
		SafeAddress: clients.Safe.Hex(),
	}, nil
}

// DeriveCredentials runs the credential stage. A warm cache returns
// without touching the wallet key.
func (s *SessionService) DeriveCredentials(ctx context.Context, privateKeyHex string) (*model.CredentialsResponse, error) {
	clients, sess, release, err := s.begin(ctx, privateKeyHex)
	if err != nil {
		return nil, err
	}
	defer release()

	if sess.HasCredentials() {
		return &model.CredentialsResponse{Success: true, HasCredentials: true}, nil
	}

	creds, err := s.creds.DeriveOrCreate(ctx, clients.Auth)
	if err != nil {
		sess.Stages["credentials"] = model.StageFailed
		_ = s.save(ctx, sess)
		metrics.StageRuns.WithLabelValues("credentials", "error").Inc()
		return nil, apperrors.NewExecution("failed to obtain venue credentials", err)
	}
	if !creds.Complete() {
		metrics.StageRuns.WithLabelValues("credentials", "error").Inc()
		return nil, apperrors.NewExecution("venue returned incomplete credentials", nil)
	}

	sess.ApiKey = creds.Key
	sess.ApiSecret = creds.Secret
	sess.ApiPassphrase = creds.Passphrase
	sess.HasCreds = true
	sess.Stages["credentials"] = model.StageDone
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	metrics.StageRuns.WithLabelValues("credentials", "ok").Inc()
	return &model.CredentialsResponse{Success: true, HasCredentials: true}, nil
}

// ClientsForSafe resolves cached client handles by Safe address for the
// key-free order path.
func (s *SessionService) ClientsForSafe(ctx context.Context, safeAddress string) (*Clients, *model.Session, error) {
	safeKey := strings.ToLower(strings.TrimSpace(safeAddress))

	s.mu.Lock()
	eoaKey, ok := s.safeIndex[safeKey]
	var clients *Clients
	if ok {
		clients = s.clients[eoaKey]
	}
	s.mu.Unlock()

	if clients == nil {
		return nil, nil, apperrors.NewPrecondition("no active session for this wallet; initialize the session first")
	}

	sess, found, err := s.store.Load(ctx, eoaKey)
	if err != nil {
		return nil, nil, apperrors.Wrap(err)
	}
	if !found {
		return nil, nil, apperrors.NewPrecondition("session expired; initialize the session again")
	}
	return clients, sess, nil
}

// Session returns the stored session for an EOA, if any.
func (s *SessionService) Session(ctx context.Context, eoa string) (*model.Session, bool, error) {
	return s.store.Load(ctx, eoa)
}
