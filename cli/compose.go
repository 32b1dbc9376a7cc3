package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/gmailsend/tui"
)

func newComposeCommand(rt *runtimeState) *cobra.Command {
	var to, subject string

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Write and send messages in a terminal form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := rt.newSender(cmd.Context(), rt.account(), rt.senderOptions(nil)...)
			if err != nil {
				return err
			}

			app := tui.NewComposeApp(cmd.Context(), s.From(), composeSendFunc(s), rt.logger)
			app.Form().SetDraft(tui.Draft{To: to, Subject: subject})
			return app.Run()
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Prefill the recipient")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Prefill the subject")
	return cmd
}

func composeSendFunc(s MailSender) tui.SendFunc {
	return func(ctx context.Context, d tui.Draft) (string, error) {
		return s.Send(ctx, d.To, d.Subject, d.Body)
	}
}
