package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComposerLinks(t *testing.T) {
	c := NewComposer("LSHOP", "https://shop.example/")

	assert.Equal(t, "https://shop.example/confirmation/tok?code=123456", c.ConfirmationLink("tok", "123456"))
	assert.Equal(t, "https://shop.example/reset-password/tok", c.ResetLink("tok"))
}

func TestPasswordResetOmitsConfirmationCode(t *testing.T) {
	c := NewComposer("LSHOP", "https://shop.example")

	msg := c.PasswordReset("Alice", "alice@x.com", "reset-token", 15*time.Minute)

	assert.Equal(t, KindPasswordReset, msg.Kind)
	assert.Equal(t, []string{"alice@x.com"}, msg.To)
	assert.Contains(t, msg.Body, "https://shop.example/reset-password/reset-token")
	assert.Contains(t, msg.Body, "15 minutes")
	assert.NotContains(t, msg.Body, "code=")
}

func TestAccountConfirmationCarriesDeepLink(t *testing.T) {
	c := NewComposer("LSHOP", "https://shop.example")

	msg := c.AccountConfirmation("Alice", "alice@x.com", "tok", "654321")

	assert.Equal(t, KindAccountConfirmation, msg.Kind)
	assert.Contains(t, msg.Body, "https://shop.example/confirmation/tok?code=654321")
}
