package tui

import (
	"fmt"
	"strings"

	"github.com/bassamadnan/gmailsend/gmail"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	LabelTo      = "To"
	LabelSubject = "Subject"
	LabelBody    = "Body"

	bodyHeight = 12
)

// Draft is what the user has typed into the compose form.
type Draft struct {
	To      string
	Subject string
	Body    string
}

// Validate rejects drafts the sender would refuse.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.To) == "" {
		return gmail.ErrNoRecipient
	}
	return nil
}

// ComposeForm wraps the tview form holding the draft fields.
type ComposeForm struct {
	*tview.Form
	to      *tview.InputField
	subject *tview.InputField
	body    *tview.TextArea
}

func NewComposeForm(from string) *ComposeForm {
	to := tview.NewInputField().SetLabel(LabelTo).SetFieldWidth(0)
	subject := tview.NewInputField().SetLabel(LabelSubject).SetFieldWidth(0)
	body := tview.NewTextArea().SetPlaceholder("Plain text message...")
	body.SetLabel(LabelBody).SetSize(bodyHeight, 0)

	form := tview.NewForm().
		AddFormItem(to).
		AddFormItem(subject).
		AddFormItem(body)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" New message from %s ", from))
	form.SetBackgroundColor(tcell.ColorDefault)
	form.SetFieldBackgroundColor(tcell.ColorDarkSlateGray)

	return &ComposeForm{Form: form, to: to, subject: subject, body: body}
}

// Draft returns the current field values.
func (f *ComposeForm) Draft() Draft {
	return Draft{
		To:      strings.TrimSpace(f.to.GetText()),
		Subject: f.subject.GetText(),
		Body:    f.body.GetText(),
	}
}

// SetDraft fills the fields from d.
func (f *ComposeForm) SetDraft(d Draft) {
	f.to.SetText(d.To)
	f.subject.SetText(d.Subject)
	f.body.SetText(d.Body, false)
}

// ClearMessage empties subject and body but keeps the recipient.
func (f *ComposeForm) ClearMessage() {
	f.subject.SetText("")
	f.body.SetText("", false)
}

func newStatusBar() *tview.TextView {
	bar := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	bar.SetBackgroundColor(tcell.ColorDefault)
	return bar
}
