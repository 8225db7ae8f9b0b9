package mailer

import (
	"log"
	"sync"
)

// DevMailer logs emails instead of sending them and keeps them for inspection.
type DevMailer struct {
	mu   sync.Mutex
	Sent []Message
}

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) error {
	d.mu.Lock()
	d.Sent = append(d.Sent, Message{ToEmail: toEmail, ToName: toName, Subject: subject, Text: text, HTML: html})
	d.mu.Unlock()
	log.Printf("[mail] DEV to=%s subject=%q\n%s", toEmail, subject, text)
	return nil
}

// Messages returns a copy of everything sent so far.
func (d *DevMailer) Messages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.Sent))
	copy(out, d.Sent)
	return out
}
