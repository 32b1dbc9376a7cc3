package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errAuthAbandoned = errors.New("authorization ended without a result")

// AuthModel shows progress while the sender is being authorized. It quits as
// soon as a result arrives or the user gives up.
type AuthModel struct {
	urlChan    <-chan string
	resultChan <-chan AuthResult

	started time.Time
	now     time.Time
	authURL string
	result  *AuthResult

	width     int
	cancelled bool
}

func NewAuthModel(urlChan <-chan string, resultChan <-chan AuthResult) AuthModel {
	now := time.Now()
	return AuthModel{
		urlChan:    urlChan,
		resultChan: resultChan,
		started:    now,
		now:        now,
	}
}

func (m AuthModel) Init() tea.Cmd {
	return tea.Batch(
		waitForAuthURLCmd(m.urlChan),
		waitForAuthResultCmd(m.resultChan),
		statusTickCmd(1*time.Second),
	)
}

func (m AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			return m, tea.Quit
		}

	case AuthURLMsg:
		m.authURL = string(msg)

	case AuthDoneMsg:
		res := AuthResult(msg)
		m.result = &res
		return m, tea.Quit

	case StatusTickMsg:
		m.now = msg.Time
		if m.result == nil {
			return m, statusTickCmd(1 * time.Second)
		}
	}
	return m, nil
}

func (m AuthModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("gmailsend · authorization"))
	b.WriteString("\n\n")

	switch {
	case m.result != nil && m.result.Err != nil:
		b.WriteString(StatusBarErrorStyle.Render(fmt.Sprintf("Failed: %v", m.result.Err)))
	case m.result != nil:
		b.WriteString(HeaderKeyStyle.Render("Sender: "))
		b.WriteString(HeaderValStyle.Render(m.result.Sender))
		b.WriteString("\n")
		b.WriteString(StatusBarSuccessStyle.Render("Authorized"))
	case m.cancelled:
		b.WriteString(StatusBarErrorStyle.Render("Cancelled"))
	default:
		if m.authURL != "" {
			b.WriteString("Open this link in your browser and grant access:\n")
			url := URLStyle.Render(m.authURL)
			if m.width > 0 {
				url = lipgloss.NewStyle().Width(m.width - 4).Render(url)
			}
			b.WriteString(url)
			b.WriteString("\n")
		} else {
			b.WriteString("Checking stored credentials...\n")
		}
		b.WriteString(BodyStyle.Render(StatusBarNormalStyle.Render(
			fmt.Sprintf("Waiting %s", formatElapsed(m.now.Sub(m.started))))))
		b.WriteString("\n")
		b.WriteString(HintStyle.Render("[q/Ctrl+C]: Cancel"))
	}
	b.WriteString("\n")
	return AppStyle.Render(b.String())
}

// Result returns the authorization outcome, if one arrived.
func (m AuthModel) Result() (AuthResult, bool) {
	if m.result == nil {
		return AuthResult{}, false
	}
	return *m.result, true
}

// Cancelled reports whether the user quit before a result arrived.
func (m AuthModel) Cancelled() bool {
	return m.cancelled
}

// AuthURL returns the consent URL shown to the user, if any.
func (m AuthModel) AuthURL() string {
	return m.authURL
}
