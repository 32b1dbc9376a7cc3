package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"gopkg.in/gomail.v2"
)

// MIME serializes the message as a single text/plain part. The body is
// base64 transfer-encoded so it survives the trip byte for byte.
func (m Message) MIME() ([]byte, error) {
	gm := gomail.NewMessage(gomail.SetEncoding(gomail.Base64))
	gm.SetHeader("From", m.From)
	gm.SetHeader("To", m.To)
	gm.SetHeader("Subject", m.Subject)
	gm.SetBody("text/plain", m.Body)

	var buf bytes.Buffer
	if _, err := gm.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to serialize MIME message: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode returns the wire-ready form accepted by users.messages.send.
func (m Message) Encode() (*gmail.Message, error) {
	raw, err := m.MIME()
	if err != nil {
		return nil, err
	}
	return &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}, nil
}
