package gmail

import (
	"net/http"
	"os"

	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Option configures a Sender.
type Option func(*options)

type options struct {
	store         CredentialStore
	flow          Flow
	flowSet       bool
	transport     Transport
	logger        *zap.Logger
	scopes        []string
	httpClient    *http.Client
	clientOptions []option.ClientOption
}

// WithStore replaces the token.json backed store.
func WithStore(store CredentialStore) Option {
	return func(o *options) { o.store = store }
}

// WithFlow sets the interactive authorization flow. Passing nil disables
// interactive authorization entirely.
func WithFlow(flow Flow) Option {
	return func(o *options) {
		o.flow = flow
		o.flowSet = true
	}
}

// WithTransport skips building the Gmail API client and sends through t.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithScopes overrides DefaultScopes.
func WithScopes(scopes ...string) Option {
	return func(o *options) { o.scopes = scopes }
}

// WithHTTPClient sets the client used for OAuth token endpoint calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClientOptions passes extra options to the Gmail service constructor.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

func buildOptions(tokenFile string, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.store == nil {
		o.store = NewFileStore(tokenFile)
	}
	if !o.flowSet {
		o.flow = &LoopbackFlow{Out: os.Stderr, Logger: o.logger}
	}
	if len(o.scopes) == 0 {
		o.scopes = DefaultScopes
	}
	return o
}
