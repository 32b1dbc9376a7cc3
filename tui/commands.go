package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// waitForAuthURLCmd waits for the consent URL. A closed channel yields no message.
func waitForAuthURLCmd(urlChan <-chan string) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-urlChan
		if !ok {
			return nil
		}
		return AuthURLMsg(u)
	}
}

// waitForAuthResultCmd waits for the sender construction to finish.
func waitForAuthResultCmd(resultChan <-chan AuthResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-resultChan
		if !ok {
			return AuthDoneMsg{Err: errAuthAbandoned}
		}
		return AuthDoneMsg(res)
	}
}

// statusTickCmd creates a ticker for updating the elapsed time.
func statusTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StatusTickMsg{Time: t}
	})
}
