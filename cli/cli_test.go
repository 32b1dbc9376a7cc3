package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/bassamadnan/gmailsend/cli"
	"github.com/bassamadnan/gmailsend/config"
	"github.com/bassamadnan/gmailsend/gmail"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeSender struct {
	from string
	err  error

	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeSender) From() string { return f.from }

func (f *fakeSender) Send(_ context.Context, recipient, subject, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMail{To: recipient, Subject: subject, Body: body})
	return "msg-1", nil
}

func (f *fakeSender) Sent() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}

type harness struct {
	dir      string
	out      *bytes.Buffer
	errOut   *bytes.Buffer
	sender   *fakeSender
	buildErr error
	builds   int
	lastDir  string
	buildCtx context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		dir:    t.TempDir(),
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		sender: &fakeSender{from: "a@x.com"},
	}
}

func (h *harness) factory(ctx context.Context, acct *config.Account, opts ...gmail.Option) (cli.MailSender, error) {
	h.builds++
	h.buildCtx = ctx
	h.lastDir = acct.Dir
	if h.buildErr != nil {
		return nil, h.buildErr
	}
	return h.sender, nil
}

func (h *harness) run(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	root := cli.NewRootCommand(cli.Config{
		Dir:       h.dir,
		In:        strings.NewReader(stdin),
		Out:       h.out,
		ErrOut:    h.errOut,
		Logger:    zap.NewNop(),
		NewSender: h.factory,
		TeaOptions: []tea.ProgramOption{
			tea.WithInput(nil),
			tea.WithOutput(io.Discard),
			tea.WithoutSignalHandler(),
		},
	})
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestSendCommand(t *testing.T) {
	t.Parallel()

	t.Run("sends with flags", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		err := h.run(t, "", "send", "--to", "b@y.com", "--subject", "Hello", "--body", "Hi there")
		require.NoError(t, err)

		assert.Equal(t, []sentMail{{To: "b@y.com", Subject: "Hello", Body: "Hi there"}}, h.sender.Sent())
		assert.Equal(t, h.dir, h.lastDir)
		assert.Contains(t, h.out.String(), "Message sent to b@y.com (id msg-1)")
	})

	t.Run("reads body from stdin", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		err := h.run(t, "line one\nline two\n", "send", "--to", "b@y.com", "-s", "Hello", "-b", "-")
		require.NoError(t, err)

		sent := h.sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "line one\nline two\n", sent[0].Body)
	})

	t.Run("requires --to", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		err := h.run(t, "", "send", "--subject", "Hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "to")
		assert.Zero(t, h.builds)
	})

	t.Run("propagates construction errors", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.buildErr = &gmail.ConfigurationError{Path: h.dir, Err: gmail.ErrNoCredentials}

		err := h.run(t, "", "send", "--to", "b@y.com")
		var cfgErr *gmail.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, gmail.ErrNoCredentials)
		assert.Empty(t, h.out.String())
	})

	t.Run("propagates send errors", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.sender.err = &gmail.SendError{Sender: "a@x.com", Recipient: "b@y.com", Err: errors.New("quota")}

		err := h.run(t, "", "send", "--to", "b@y.com")
		var sendErr *gmail.SendError
		require.ErrorAs(t, err, &sendErr)
		assert.Equal(t, "b@y.com", sendErr.Recipient)
	})

	t.Run("dry run prints the message", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		require.NoError(t, os.WriteFile(filepath.Join(h.dir, "send_account.txt"), []byte("a@x.com\n"), 0o600))

		err := h.run(t, "", "send", "--dry-run", "--to", "b@y.com", "--subject", "Hello", "--body", "Hi there")
		require.NoError(t, err)

		out := h.out.String()
		assert.Contains(t, out, "From: a@x.com")
		assert.Contains(t, out, "To: b@y.com")
		assert.Contains(t, out, "Subject: Hello")
		assert.Zero(t, h.builds)
	})

	t.Run("dry run without sender file", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		err := h.run(t, "", "send", "--dry-run", "--to", "b@y.com")
		var cfgErr *gmail.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestSendCommand_RealSender(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	transport := &recordingTransport{}
	root := cli.NewRootCommand(cli.Config{
		Dir:    h.dir,
		In:     strings.NewReader(""),
		Out:    h.out,
		ErrOut: h.errOut,
		Logger: zap.NewNop(),
		NewSender: func(_ context.Context, _ *config.Account, opts ...gmail.Option) (cli.MailSender, error) {
			return gmail.NewWithTransport("a@x.com", transport, opts...), nil
		},
	})
	root.SetArgs([]string{"send", "--to", "b@y.com", "--subject", "Hello", "--body", "Hi there"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.Len(t, transport.msgs, 1)
	assert.Equal(t, "a@x.com", transport.userID)
	assert.NotEmpty(t, transport.msgs[0].Raw)
	assert.Contains(t, h.out.String(), "(id remote-1)")
}

type recordingTransport struct {
	userID string
	msgs   []*gmailapi.Message
}

func (r *recordingTransport) Send(_ context.Context, userID string, msg *gmailapi.Message) (string, error) {
	r.userID = userID
	r.msgs = append(r.msgs, msg)
	return "remote-1", nil
}

func TestAuthCommand(t *testing.T) {
	t.Parallel()

	t.Run("plain sends the bootstrap message to itself", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		require.NoError(t, h.run(t, "", "auth", "--plain"))

		assert.Equal(t, []sentMail{{To: "a@x.com", Subject: "Obtaining an API token", Body: "Dummy body"}}, h.sender.Sent())
		assert.Contains(t, h.out.String(), "Authorized a@x.com")
		assert.Contains(t, h.out.String(), filepath.Join(h.dir, "token.json"))
	})

	t.Run("skip test send", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		require.NoError(t, h.run(t, "", "--no-browser", "auth", "--skip-test-send"))
		assert.Empty(t, h.sender.Sent())
		assert.Equal(t, 1, h.builds)
	})

	t.Run("progress view reports success", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		require.NoError(t, h.run(t, "", "auth", "--skip-test-send"))
		assert.Equal(t, 1, h.builds)
		assert.Contains(t, h.out.String(), "Authorized a@x.com")
	})

	t.Run("sender outlives the progress view", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		require.NoError(t, h.run(t, "", "auth"))

		require.NotNil(t, h.buildCtx)
		assert.NoError(t, h.buildCtx.Err())
		assert.Equal(t, []sentMail{{To: "a@x.com", Subject: "Obtaining an API token", Body: "Dummy body"}}, h.sender.Sent())
	})

	t.Run("progress view reports failure", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.buildErr = &gmail.AuthenticationError{Sender: "a@x.com", Err: errors.New("invalid_grant")}

		err := h.run(t, "", "auth")
		var authErr *gmail.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Empty(t, h.sender.Sent())
	})
}

func TestRootCommand_LogFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")
	root := cli.NewRootCommand(cli.Config{
		Dir:    dir,
		In:     strings.NewReader(""),
		Out:    &bytes.Buffer{},
		ErrOut: &bytes.Buffer{},
		NewSender: func(_ context.Context, _ *config.Account, opts ...gmail.Option) (cli.MailSender, error) {
			return &fakeSender{from: "a@x.com"}, nil
		},
	})
	root.SetArgs([]string{"--log-file", logPath, "--debug", "send", "--to", "b@y.com"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "command starting")
}
