package gmail

import (
	"encoding/json"

	"golang.org/x/oauth2"
)

// Message is a plain-text email sent from the account's fixed address.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// TokenBundle is the persisted OAuth material: the token itself plus enough
// client metadata to refresh it when credentials.json is not around.
type TokenBundle struct {
	oauth2.Token
	Scopes       []string `json:"scopes,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
}

func newBundle(cfg *oauth2.Config, tok *oauth2.Token) *TokenBundle {
	return &TokenBundle{
		Token:        *tok,
		Scopes:       append([]string(nil), cfg.Scopes...),
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURI:     cfg.Endpoint.TokenURL,
	}
}

// withToken returns a copy of b carrying tok. A refresh response without a
// refresh token keeps the previous one.
func (b *TokenBundle) withToken(tok *oauth2.Token) *TokenBundle {
	next := b.clone()
	next.Token = *tok
	if next.RefreshToken == "" {
		next.RefreshToken = b.RefreshToken
	}
	return next
}

// clone returns a copy of b that shares no slices with it.
func (b *TokenBundle) clone() *TokenBundle {
	cp := *b
	cp.Scopes = append([]string(nil), b.Scopes...)
	return &cp
}

// UnmarshalJSON also reads the "token" key that google-auth authorized-user
// files use for the access token.
func (b *TokenBundle) UnmarshalJSON(data []byte) error {
	type plain TokenBundle
	aux := struct {
		*plain
		LegacyToken string `json:"token"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if b.AccessToken == "" {
		b.AccessToken = aux.LegacyToken
	}
	return nil
}

// oauthToken returns a detached copy of the embedded token.
func (b *TokenBundle) oauthToken() *oauth2.Token {
	t := b.Token
	return &t
}
