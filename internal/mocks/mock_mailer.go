package mocks

import (
	"sync"

	"github.com/you/shopauthsvc/domain"
)

// SentMail records one delivery attempt made through the mock
type SentMail struct {
	Email string
	Token string
	Kind  string
}

// MockMailer implements domain.Mailer interface for testing. It records
// every delivery so tests can assert on what was sent.
type MockMailer struct {
	SendVerificationEmailFunc  func(email, tokenValue string) error
	SendPasswordResetEmailFunc func(email, tokenValue string) error

	mu   sync.Mutex
	Sent []SentMail
}

// NewMockMailer creates a new MockMailer with default behaviors
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SendVerificationEmail(email, tokenValue string) error {
	m.record(email, tokenValue, "verification")
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(email, tokenValue)
	}
	return nil
}

func (m *MockMailer) SendPasswordResetEmail(email, tokenValue string) error {
	m.record(email, tokenValue, "password_reset")
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(email, tokenValue)
	}
	return nil
}

func (m *MockMailer) record(email, token, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{Email: email, Token: token, Kind: kind})
}

// LastSent returns the most recent delivery, or nil when nothing was sent
func (m *MockMailer) LastSent() *SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	last := m.Sent[len(m.Sent)-1]
	return &last
}

// Compile-time interface compliance verification
var _ domain.Mailer = (*MockMailer)(nil)
