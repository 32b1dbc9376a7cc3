package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/bassamadnan/gmailsend/gmail"
	"github.com/bassamadnan/gmailsend/tui"
)

const (
	bootstrapSubject = "Obtaining an API token"
	bootstrapBody    = "Dummy body"
)

var errAuthCancelled = errors.New("authorization cancelled")

func newAuthCommand(rt *runtimeState) *cobra.Command {
	var plain, skipTestSend bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize the account once and store token.json",
		Long: `Runs the OAuth consent flow if no usable token is stored, saves the
resulting token.json and, unless --skip-test-send is given, sends a test
message from the account to itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				s   MailSender
				err error
			)
			if plain || rt.noBrowser {
				s, err = rt.newSender(cmd.Context(), rt.account(), rt.senderOptions(nil)...)
			} else {
				s, err = authorizeWithProgress(cmd.Context(), rt)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(rt.out, "Authorized %s; token stored in %s\n", s.From(), rt.account().TokenFile)
			if skipTestSend {
				return nil
			}
			id, err := s.Send(cmd.Context(), s.From(), bootstrapSubject, bootstrapBody)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "Test message sent to %s (id %s)\n", s.From(), id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print the consent URL instead of showing the progress view")
	cmd.Flags().BoolVar(&skipTestSend, "skip-test-send", false, "Do not send a test message to the account itself")
	return cmd
}

// authorizeWithProgress builds the sender in the background while a bubbletea
// view shows the consent URL and elapsed time. The sender is built with ctx
// and keeps it for later refreshes; quitting the view only stops the
// interactive flow.
func authorizeWithProgress(ctx context.Context, rt *runtimeState) (MailSender, error) {
	flowCtx, abandon := context.WithCancel(context.Background())
	defer abandon()

	urlChan := make(chan string, 1)
	resultChan := make(chan tui.AuthResult, 1)
	flow := &abandonableFlow{
		Flow: &gmail.LoopbackFlow{
			Logger: rt.logger,
			Notify: func(authURL string) {
				select {
				case urlChan <- authURL:
				default:
				}
			},
		},
		abandoned: flowCtx,
	}

	var built MailSender
	go func() {
		s, err := rt.newSender(ctx, rt.account(), rt.senderOptions(flow)...)
		res := tui.AuthResult{Err: err}
		if err == nil {
			built = s
			res.Sender = s.From()
		}
		resultChan <- res
	}()

	opts := append([]tea.ProgramOption{tea.WithInput(rt.in), tea.WithOutput(rt.out)}, rt.teaOptions...)
	final, err := tea.NewProgram(tui.NewAuthModel(urlChan, resultChan), opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("progress view failed: %w", err)
	}

	m, ok := final.(tui.AuthModel)
	if !ok {
		return nil, fmt.Errorf("unexpected progress model %T", final)
	}
	res, done := m.Result()
	if !done {
		return nil, errAuthCancelled
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return built, nil
}

// abandonableFlow runs Flow under a context that also ends when abandoned
// does, so the user can give up on the consent page without cancelling the
// context the sender keeps.
type abandonableFlow struct {
	gmail.Flow
	abandoned context.Context
}

func (f *abandonableFlow) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(f.abandoned, cancel)
	defer stop()
	return f.Flow.Authorize(ctx, cfg)
}
