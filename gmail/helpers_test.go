package gmail_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/bassamadnan/gmailsend/gmail"
)

// decodeRaw reverses Message.Encode: base64url, then MIME.
func decodeRaw(t *testing.T, raw string) gmail.Message {
	t.Helper()

	b, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(b)))
	require.NoError(t, err)

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)

	var body io.Reader = msg.Body
	if strings.EqualFold(msg.Header.Get("Content-Transfer-Encoding"), "base64") {
		body = base64.NewDecoder(base64.StdEncoding, msg.Body)
	}
	text, err := io.ReadAll(body)
	require.NoError(t, err)

	return gmail.Message{
		From:    msg.Header.Get("From"),
		To:      msg.Header.Get("To"),
		Subject: subject,
		Body:    string(text),
	}
}

type sentCall struct {
	userID string
	msg    *gmailapi.Message
}

type fakeTransport struct {
	mu    sync.Mutex
	calls []sentCall
	id    string
	err   error
}

func (f *fakeTransport) Send(_ context.Context, userID string, msg *gmailapi.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{userID: userID, msg: msg})
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func (f *fakeTransport) Calls() []sentCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCall(nil), f.calls...)
}

// tokenServer is a fake OAuth token endpoint.
type tokenServer struct {
	*httptest.Server
	hits   atomic.Int32
	status atomic.Int32
	forms  chan map[string]string
}

func newTokenServer(t *testing.T, accessToken string) *tokenServer {
	t.Helper()
	ts := &tokenServer{forms: make(chan map[string]string, 8)}
	ts.status.Store(http.StatusOK)
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		_ = r.ParseForm()
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		select {
		case ts.forms <- form:
		default:
		}

		w.Header().Set("Content-Type", "application/json")
		if status := int(ts.status.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) TokenURL() string {
	return ts.URL + "/token"
}

func writeSender(t *testing.T, dir, sender string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "send_account.txt"), []byte(sender+"\n"), 0o600))
}

func writeCredentials(t *testing.T, dir, tokenURL string) {
	t.Helper()
	creds := fmt.Sprintf(`{"installed":{"client_id":"cid","client_secret":"csecret",`+
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":%q,`+
		`"redirect_uris":["http://localhost"]}}`, tokenURL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte(creds), 0o600))
}
