package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// SendFunc delivers a draft and returns the provider's message id.
type SendFunc func(ctx context.Context, d Draft) (string, error)

// ComposeApp is a single-screen form for writing and sending one message at a time.
type ComposeApp struct {
	*tview.Application
	form      *ComposeForm
	statusBar *tview.TextView

	ctx     context.Context
	from    string
	send    SendFunc
	logger  *zap.Logger
	sending bool

	// async runs the send off the UI goroutine; queue hands results back to it.
	async func(func())
	queue func(func())
}

func NewComposeApp(ctx context.Context, from string, send SendFunc, logger *zap.Logger) *ComposeApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &ComposeApp{
		Application: tview.NewApplication(),
		form:        NewComposeForm(from),
		statusBar:   newStatusBar(),
		ctx:         ctx,
		from:        from,
		send:        send,
		logger:      logger,
	}
	a.async = func(f func()) { go f() }
	a.queue = func(f func()) { a.QueueUpdateDraw(f) }

	a.form.
		AddButton("Send", a.submit).
		AddButton("Quit", a.Stop)
	a.form.SetCancelFunc(a.Stop)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.form, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)
	layout.SetBackgroundColor(tcell.ColorDefault)

	a.setStandardStatus()
	a.SetRoot(layout, true).EnableMouse(true)
	a.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyCtrlS:
			a.submit()
			return nil
		}
		return event
	})
	return a
}

// Form exposes the compose form, mainly for prefilling.
func (a *ComposeApp) Form() *ComposeForm {
	return a.form
}

func (a *ComposeApp) submit() {
	if a.sending {
		return
	}
	d := a.form.Draft()
	if err := d.Validate(); err != nil {
		a.setStatusError(err.Error())
		return
	}

	a.sending = true
	a.statusBar.SetText(fmt.Sprintf(" [yellow]Sending to %s...[-]", d.To))
	a.async(func() {
		id, err := a.send(a.ctx, d)
		a.queue(func() {
			a.sending = false
			if err != nil {
				a.logger.Error("compose send failed", zap.String("to", d.To), zap.Error(err))
				a.setStatusError(err.Error())
				return
			}
			a.logger.Info("compose send succeeded", zap.String("to", d.To), zap.String("id", id))
			a.form.ClearMessage()
			a.statusBar.SetText(fmt.Sprintf(" [green]Sent %q to %s (id %s) at %s[-] | [::b]Ctrl+S[::-]:Send [::b]Esc/Ctrl+C[::-]:Quit",
				truncate(d.Subject, 30), d.To, id, time.Now().Format("15:04:05")))
		})
	})
}

func (a *ComposeApp) setStatusError(text string) {
	a.statusBar.SetText(fmt.Sprintf(" [red]Error: %s[-]", tview.Escape(text)))
}

func (a *ComposeApp) setStandardStatus() {
	a.statusBar.SetText(fmt.Sprintf(" [::d]From: %s[::-] | [::b]Ctrl+S[::-]:Send [::b]Esc/Ctrl+C[::-]:Quit", a.from))
}

// StatusText returns the status bar text without color tags.
func (a *ComposeApp) StatusText() string {
	return a.statusBar.GetText(true)
}
