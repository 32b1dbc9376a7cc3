package gmail

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Flow obtains a brand new token through user interaction.
type Flow interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

const defaultLoopbackAddr = "127.0.0.1:0"

// LoopbackFlow runs the installed-app flow: it listens on a local port, hands
// the consent URL to the user and waits for Google to redirect back.
type LoopbackFlow struct {
	// Addr is the listen address. Defaults to an ephemeral loopback port.
	Addr string
	// Notify receives the consent URL. Defaults to printing it to Out.
	Notify func(authURL string)
	// Out defaults to os.Stderr.
	Out    io.Writer
	Logger *zap.Logger
}

type callbackResult struct {
	code string
	err  error
}

func (f *LoopbackFlow) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}
	addr := f.Addr
	if addr == "" {
		addr = defaultLoopbackAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to listen for oauth callback: %w", err)
	}

	c := *cfg
	c.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("oauth callback server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	log.Info("waiting for oauth callback", zap.String("redirect", c.RedirectURL))
	f.notify(authURL)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := c.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
		}
		return tok, nil
	}
}

func (f *LoopbackFlow) notify(authURL string) {
	if f.Notify != nil {
		f.Notify(authURL)
		return
	}
	out := f.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "Open the following link in your browser to authorize this application:\n%v\n", authURL)
}

func callbackRouter(state string, results chan<- callbackResult) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = ErrStateMismatch
		case q.Get("code") == "":
			res.err = ErrMissingCode
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Authorization failed: %v\n", res.err)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You may close this window.")
	})
	return r
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("unable to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// PasteFlow prints the consent URL and reads the authorization code back from In.
// Useful on hosts where the browser cannot reach a local port.
type PasteFlow struct {
	In  io.Reader
	Out io.Writer
}

func (f *PasteFlow) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	in, out := f.In, f.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := cfg.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}
