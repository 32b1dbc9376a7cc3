package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	accountDirName  = ".ssh/MailThroughGoogle"
	senderFile      = "send_account.txt"
	credentialsFile = "credentials.json"
	tokenFile       = "token.json"
)

// ErrEmptySender is returned when the sender file exists but holds no address.
var ErrEmptySender = errors.New("sender file is empty")

// Account describes the local directory holding the sending account's material.
type Account struct {
	Dir             string
	SenderFile      string
	CredentialsFile string
	TokenFile       string

	mu     sync.RWMutex
	sender string
}

// DefaultDir returns the account directory under the invoking user's home.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to resolve home directory: %w", err)
	}
	return filepath.Join(home, accountDirName), nil
}

// Load returns the account layout rooted at dir. Files are not touched until read.
func Load(dir string) *Account {
	return &Account{
		Dir:             dir,
		SenderFile:      filepath.Join(dir, senderFile),
		CredentialsFile: filepath.Join(dir, credentialsFile),
		TokenFile:       filepath.Join(dir, tokenFile),
	}
}

// ReadSender reads the sender address once and caches it.
// A missing file keeps fs.ErrNotExist in the error chain.
func (a *Account) ReadSender() (string, error) {
	a.mu.RLock()
	cached := a.sender
	a.mu.RUnlock()
	if cached != "" {
		return cached, nil
	}

	data, err := os.ReadFile(a.SenderFile)
	if err != nil {
		return "", fmt.Errorf("unable to read sender file %s: %w", a.SenderFile, err)
	}
	sender := strings.TrimSpace(string(data))
	if sender == "" {
		return "", fmt.Errorf("%s: %w", a.SenderFile, ErrEmptySender)
	}

	a.mu.Lock()
	a.sender = sender
	a.mu.Unlock()
	return sender, nil
}

// HasCredentials reports whether the OAuth client secret file is present.
func (a *Account) HasCredentials() bool {
	_, err := os.Stat(a.CredentialsFile)
	return err == nil
}

// ReadCredentials returns the raw OAuth client secret JSON.
func (a *Account) ReadCredentials() ([]byte, error) {
	b, err := os.ReadFile(a.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	return b, nil
}
