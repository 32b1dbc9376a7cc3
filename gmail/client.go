package gmail

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassamadnan/gmailsend/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultScopes grants full mailbox access, which covers sending.
var DefaultScopes = []string{gmail.MailGoogleComScope}

// Transport delivers a wire-ready message on behalf of userID and returns
// the provider's message id.
type Transport interface {
	Send(ctx context.Context, userID string, msg *gmail.Message) (string, error)
}

// APITransport sends through the Gmail REST API.
type APITransport struct {
	srv *gmail.Service
}

// NewAPITransport builds a Gmail service authenticated by ts.
func NewAPITransport(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*APITransport, error) {
	httpClient := oauth2.NewClient(ctx, ts)
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &APITransport{srv: srv}, nil
}

func (t *APITransport) Send(ctx context.Context, userID string, msg *gmail.Message) (string, error) {
	sent, err := t.srv.Users.Messages.Send(userID, msg).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("gmail api rejected message (status %d): %w", apiErr.Code, err)
		}
		return "", fmt.Errorf("gmail api request failed: %w", err)
	}
	return sent.Id, nil
}

// oauthConfig prefers the application's credentials.json and falls back to the
// client details recorded in a stored bundle.
func oauthConfig(acct *config.Account, bundle *TokenBundle, scopes []string) (*oauth2.Config, error) {
	if acct.HasCredentials() {
		b, err := acct.ReadCredentials()
		if err != nil {
			return nil, &ConfigurationError{Path: acct.CredentialsFile, Err: err}
		}
		cfg, err := google.ConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, &ConfigurationError{
				Path: acct.CredentialsFile,
				Err:  fmt.Errorf("unable to parse client secret file to config: %w", err),
			}
		}
		return cfg, nil
	}

	if bundle == nil {
		return nil, &ConfigurationError{Path: acct.Dir, Err: ErrNoCredentials}
	}

	tokenURL := bundle.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	if len(bundle.Scopes) > 0 {
		scopes = bundle.Scopes
	}
	return &oauth2.Config{
		ClientID:     bundle.ClientID,
		ClientSecret: bundle.ClientSecret,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  google.Endpoint.AuthURL,
			TokenURL: tokenURL,
		},
	}, nil
}
