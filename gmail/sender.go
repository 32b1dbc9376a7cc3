package gmail

import (
	"context"
	"strings"

	"github.com/bassamadnan/gmailsend/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Sender sends plain-text mail from the account's fixed address. Build one
// per process and pass it to whatever needs to send.
type Sender struct {
	from      string
	transport Transport
	logger    *zap.Logger
}

// New reads the sender address from acct, makes sure a valid token exists
// (refreshing or running the interactive flow as needed) and builds the
// Gmail client.
//
// Errors are *ConfigurationError when local files are missing and
// *AuthenticationError when no token could be obtained. ctx is retained by
// the token source for later refreshes and must outlive the Sender.
func New(ctx context.Context, acct *config.Account, opts ...Option) (*Sender, error) {
	o := buildOptions(acct.TokenFile, opts)

	from, err := acct.ReadSender()
	if err != nil {
		return nil, &ConfigurationError{Path: acct.SenderFile, Err: err}
	}
	log := o.logger.With(zap.String("sender", from))

	bundle, err := o.store.Load(ctx)
	if err != nil {
		return nil, &AuthenticationError{Sender: from, Err: err}
	}

	oauthCfg, err := oauthConfig(acct, bundle, o.scopes)
	if err != nil {
		return nil, err
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	auth := &Authorizer{Config: oauthCfg, Store: o.store, Flow: o.flow, Logger: log}
	bundle, err = auth.Ensure(ctx, bundle)
	if err != nil {
		return nil, &AuthenticationError{Sender: from, Err: err}
	}

	transport := o.transport
	if transport == nil {
		transport, err = NewAPITransport(ctx, auth.TokenSource(ctx, bundle), o.clientOptions...)
		if err != nil {
			return nil, err
		}
	}

	log.Info("gmail sender ready")
	return &Sender{from: from, transport: transport, logger: log}, nil
}

// NewWithTransport builds a Sender for from that delivers through t.
// No local files or credentials are consulted.
func NewWithTransport(from string, t Transport, opts ...Option) *Sender {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Sender{from: from, transport: t, logger: o.logger.With(zap.String("sender", from))}
}

// From returns the acting identity.
func (s *Sender) From() string {
	return s.from
}

// Send delivers a plain-text message to recipient and returns the provider's
// message id. Every failure is a *SendError; nothing is retried.
func (s *Sender) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	if strings.TrimSpace(recipient) == "" {
		return "", &SendError{Sender: s.from, Recipient: recipient, Err: ErrNoRecipient}
	}

	msg, err := Message{From: s.from, To: recipient, Subject: subject, Body: body}.Encode()
	if err != nil {
		return "", &SendError{Sender: s.from, Recipient: recipient, Err: err}
	}

	id, err := s.transport.Send(ctx, s.from, msg)
	if err != nil {
		s.logger.Error("send failed", zap.String("to", recipient), zap.Error(err))
		return "", &SendError{Sender: s.from, Recipient: recipient, Err: err}
	}

	s.logger.Info("message sent", zap.String("to", recipient), zap.String("id", id))
	return id, nil
}
