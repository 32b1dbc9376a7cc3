package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/gmailsend/gmail"
)

func newSendCommand(rt *runtimeState) *cobra.Command {
	var (
		to      string
		subject string
		body    string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one plain-text message",
		Example: `  gmailsend send --to b@y.com --subject Hello --body "Hi there"
  echo "Hi there" | gmailsend send --to b@y.com --subject Hello --body -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if body == "-" {
				b, err := io.ReadAll(rt.in)
				if err != nil {
					return fmt.Errorf("unable to read body from stdin: %w", err)
				}
				body = string(b)
			}

			if dryRun {
				return printDryRun(rt, to, subject, body)
			}

			s, err := rt.newSender(cmd.Context(), rt.account(), rt.senderOptions(nil)...)
			if err != nil {
				return err
			}
			id, err := s.Send(cmd.Context(), to, subject, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "Message sent to %s (id %s)\n", to, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject line")
	cmd.Flags().StringVarP(&body, "body", "b", "", `Message body, or "-" to read it from stdin`)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the MIME message instead of sending it")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// printDryRun writes the message that would be sent. It reads the sender file
// but never touches credentials or the network.
func printDryRun(rt *runtimeState, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return gmail.ErrNoRecipient
	}
	acct := rt.account()
	from, err := acct.ReadSender()
	if err != nil {
		return &gmail.ConfigurationError{Path: acct.SenderFile, Err: err}
	}
	raw, err := gmail.Message{From: from, To: to, Subject: subject, Body: body}.MIME()
	if err != nil {
		return err
	}
	_, err = rt.out.Write(raw)
	return err
}
