package tui

import "time"

// AuthResult is the outcome of building the sender, including any authorization it needed.
type AuthResult struct {
	Sender string
	Err    error
}

// A message carrying the consent URL the user has to open.
type AuthURLMsg string

// A message signalling that authorization finished, successfully or not.
type AuthDoneMsg AuthResult

// A message for timed status updates.
type StatusTickMsg struct{ Time time.Time }
