package cli

import (
	"context"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bassamadnan/gmailsend/config"
	"github.com/bassamadnan/gmailsend/gmail"
)

// MailSender is the part of *gmail.Sender the commands use.
type MailSender interface {
	From() string
	Send(ctx context.Context, recipient, subject, body string) (string, error)
}

// SenderFactory builds the process's sender.
type SenderFactory func(ctx context.Context, acct *config.Account, opts ...gmail.Option) (MailSender, error)

type Config struct {
	Dir    string
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	// Logger overrides the file logger built from --log-file.
	Logger *zap.Logger

	// NewSender defaults to gmail.New.
	NewSender SenderFactory
	// TeaOptions are appended when starting bubbletea programs.
	TeaOptions []tea.ProgramOption
}

type runtimeState struct {
	dir        string
	noBrowser  bool
	logFile    string
	debug      bool
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	logger     *zap.Logger
	newSender  SenderFactory
	teaOptions []tea.ProgramOption
}

func DefaultConfig() Config {
	return Config{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

func defaultSenderFactory(ctx context.Context, acct *config.Account, opts ...gmail.Option) (MailSender, error) {
	s, err := gmail.New(ctx, acct, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		dir:        cfg.Dir,
		in:         cfg.In,
		out:        cfg.Out,
		errOut:     cfg.ErrOut,
		logger:     cfg.Logger,
		newSender:  cfg.NewSender,
		teaOptions: cfg.TeaOptions,
	}

	root := &cobra.Command{
		Use:           "gmailsend",
		Short:         "Send plain-text mail from a fixed Gmail account",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.applyDefaults(); err != nil {
				return err
			}
			rt.logger.Debug("command starting", zap.String("command", cmd.CommandPath()))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&rt.dir, "dir", rt.dir, "Account directory holding send_account.txt, credentials.json and token.json (env GMAILSEND_DIR)")
	root.PersistentFlags().BoolVar(&rt.noBrowser, "no-browser", false, "Paste the authorization code instead of receiving it on a local port (env GMAILSEND_NO_BROWSER=true)")
	root.PersistentFlags().StringVar(&rt.logFile, "log-file", "", "Log file path (default gmailsend.log, env GMAILSEND_LOG_FILE)")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Log at debug level")

	root.SetIn(cfg.In)
	root.SetOut(cfg.Out)
	root.SetErr(cfg.ErrOut)

	root.AddCommand(
		newSendCommand(rt),
		newComposeCommand(rt),
		newAuthCommand(rt),
	)
	return root
}

// applyDefaults fills whatever neither Config nor flags set, falling back to
// GMAILSEND_DIR, GMAILSEND_NO_BROWSER and GMAILSEND_LOG_FILE.
func (rt *runtimeState) applyDefaults() error {
	if rt.in == nil {
		rt.in = os.Stdin
	}
	if rt.out == nil {
		rt.out = os.Stdout
	}
	if rt.errOut == nil {
		rt.errOut = os.Stderr
	}
	if rt.logger == nil {
		if rt.logFile == "" {
			rt.logFile = os.Getenv("GMAILSEND_LOG_FILE")
		}
		if rt.logFile == "" {
			rt.logFile = defaultLogFile
		}
		logger, err := newFileLogger(rt.logFile, rt.debug)
		if err != nil {
			return err
		}
		rt.logger = logger
	}
	if rt.newSender == nil {
		rt.newSender = defaultSenderFactory
	}
	if rt.dir == "" {
		rt.dir = os.Getenv("GMAILSEND_DIR")
	}
	if !rt.noBrowser {
		rt.noBrowser = strings.EqualFold(os.Getenv("GMAILSEND_NO_BROWSER"), "true")
	}
	if rt.dir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return err
		}
		rt.dir = dir
	}
	return nil
}

func (rt *runtimeState) account() *config.Account {
	return config.Load(rt.dir)
}

// senderOptions picks the interactive flow for first-time authorization.
// flow overrides the default choice when non-nil.
func (rt *runtimeState) senderOptions(flow gmail.Flow) []gmail.Option {
	if flow == nil {
		if rt.noBrowser {
			flow = &gmail.PasteFlow{In: rt.in, Out: rt.errOut}
		} else {
			flow = &gmail.LoopbackFlow{Out: rt.errOut, Logger: rt.logger}
		}
	}
	return []gmail.Option{
		gmail.WithLogger(rt.logger),
		gmail.WithFlow(flow),
	}
}
