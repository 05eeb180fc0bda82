package notification

import (
	"context"
	"errors"
	"sync"
)

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: text})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// WhatsAppCall records a single call to SendWhatsApp.
type WhatsAppCall struct {
	To   string
	Body string
}

// MockWhatsAppSender is a test double for WhatsAppSender.
type MockWhatsAppSender struct {
	mu         sync.Mutex
	calls      []WhatsAppCall
	SID        string
	ShouldFail bool
	FailError  string
}

// SendWhatsApp records the call and optionally returns an error.
func (m *MockWhatsAppSender) SendWhatsApp(_ context.Context, to, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, WhatsAppCall{To: to, Body: message})
	if m.ShouldFail {
		return "", errors.New(m.FailError)
	}
	return m.SID, nil
}

// Calls returns a copy of recorded WhatsApp calls.
func (m *MockWhatsAppSender) Calls() []WhatsAppCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WhatsAppCall, len(m.calls))
	copy(out, m.calls)
	return out
}
