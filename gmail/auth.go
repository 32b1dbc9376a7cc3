package gmail

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Authorizer turns whatever is in the store into a usable token bundle.
type Authorizer struct {
	Config *oauth2.Config
	Store  CredentialStore
	Flow   Flow
	Logger *zap.Logger
}

// Ensure returns a valid bundle starting from bundle (which may be nil).
//
// A valid bundle is returned as is. An expired bundle with a refresh token is
// refreshed at the token endpoint. Anything else goes through the interactive
// flow. Refreshed or newly obtained bundles are saved before returning.
func (a *Authorizer) Ensure(ctx context.Context, bundle *TokenBundle) (*TokenBundle, error) {
	log := a.logger()

	var next *TokenBundle
	switch {
	case bundle != nil && bundle.Valid():
		log.Debug("stored token is valid", zap.Time("expiry", bundle.Expiry))
		return bundle, nil

	case bundle != nil && bundle.RefreshToken != "":
		log.Info("stored token expired, refreshing", zap.Time("expiry", bundle.Expiry))
		tok, err := a.Config.TokenSource(ctx, bundle.oauthToken()).Token()
		if err != nil {
			return nil, fmt.Errorf("unable to refresh token: %w", err)
		}
		next = bundle.withToken(tok)

	default:
		if a.Flow == nil {
			return nil, ErrInteractiveUnavailable
		}
		log.Info("no usable token, starting interactive authorization")
		tok, err := a.Flow.Authorize(ctx, a.Config)
		if err != nil {
			return nil, fmt.Errorf("interactive authorization failed: %w", err)
		}
		next = newBundle(a.Config, tok)
	}

	if err := a.Store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("unable to persist token: %w", err)
	}
	log.Info("token saved", zap.Time("expiry", next.Expiry))
	return next, nil
}

// TokenSource returns a source that refreshes bundle as needed and writes each
// rotated token back to the store. ctx must outlive the source.
func (a *Authorizer) TokenSource(ctx context.Context, bundle *TokenBundle) oauth2.TokenSource {
	return &persistingTokenSource{
		ctx:    ctx,
		base:   a.Config.TokenSource(ctx, bundle.oauthToken()),
		store:  a.Store,
		last:   bundle,
		logger: a.logger(),
	}
}

func (a *Authorizer) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

type persistingTokenSource struct {
	ctx    context.Context
	base   oauth2.TokenSource
	store  CredentialStore
	logger *zap.Logger

	mu   sync.Mutex
	last *TokenBundle
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last.AccessToken {
		return tok, nil
	}
	next := s.last.withToken(tok)
	if err := s.store.Save(s.ctx, next); err != nil {
		return nil, fmt.Errorf("unable to persist refreshed token: %w", err)
	}
	s.logger.Info("refreshed token saved", zap.Time("expiry", next.Expiry))
	s.last = next
	return tok, nil
}
