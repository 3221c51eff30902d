package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerificationMessage(t *testing.T) {
	msg := VerificationMessage("alice@example.com", "alice", "https://accounts.example.com/auth/verify-email/abc")

	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Please verify your email", msg.Subject)
	assert.Contains(t, msg.Body, "Hi alice,")
	assert.Contains(t, msg.Body, "https://accounts.example.com/auth/verify-email/abc")
}

func TestPasswordResetMessage(t *testing.T) {
	msg := PasswordResetMessage("alice@example.com", "alice", "https://accounts.example.com/auth/reset-password/abc")

	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Password reset request", msg.Subject)
	assert.Contains(t, msg.Body, "Hi alice,")
	assert.Contains(t, msg.Body, "https://accounts.example.com/auth/reset-password/abc")
}

func TestDispatcherNilSafe(t *testing.T) {
	var dispatcher *Dispatcher
	assert.NotPanics(t, func() {
		dispatcher.Dispatch(Message{To: "alice@example.com"})
	})

	assert.NotPanics(t, func() {
		NewDispatcher(nil, nil).Dispatch(Message{To: "alice@example.com"})
	})
}

func TestSMTPConfigComplete(t *testing.T) {
	assert.False(t, SMTPConfig{}.Complete())
	assert.False(t, SMTPConfig{Host: "smtp.example.com"}.Complete())
	assert.True(t, SMTPConfig{Host: "smtp.example.com", Port: "587", From: "no-reply@example.com"}.Complete())
}
