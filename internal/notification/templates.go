package notification

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Composer renders the account emails for a brand.
type Composer struct {
	Brand       string
	FrontendURL string
	Support     string
}

// NewComposer builds a composer; frontendURL is the base for deep links.
func NewComposer(brand, frontendURL string) Composer {
	return Composer{
		Brand:       brand,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		Support:     "support@" + strings.ToLower(brand) + ".com",
	}
}

// ConfirmationLink embeds both the token and the numeric code.
func (c Composer) ConfirmationLink(token, code string) string {
	return fmt.Sprintf("%s/confirmation/%s?code=%s", c.FrontendURL, url.PathEscape(token), url.QueryEscape(code))
}

// ResetLink carries the reset token only.
func (c Composer) ResetLink(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", c.FrontendURL, url.PathEscape(token))
}

func (c Composer) AccountConfirmation(name, email, token, code string) Message {
	return Message{
		Kind:    KindAccountConfirmation,
		To:      []string{email},
		Subject: "Confirm your Account",
		Body: fmt.Sprintf("Hey %s, Please click on the link below to confirm your account.\n\n %s",
			name, c.ConfirmationLink(token, code)),
	}
}

func (c Composer) AccountConfirmed(name, email string) Message {
	return Message{
		Kind:    KindAccountConfirmed,
		To:      []string{email},
		Subject: fmt.Sprintf("Your %s Account is Confirmed!", c.Brand),
		Body: fmt.Sprintf("Hi %s,\nWelcome to %s! Your account has been successfully confirmed.\n"+
			"If you have any questions, reach out anytime at [%s].\nThe %s Team",
			name, c.Brand, c.Support, c.Brand),
	}
}

func (c Composer) PasswordReset(name, email, token string, ttl time.Duration) Message {
	return Message{
		Kind:    KindPasswordReset,
		To:      []string{email},
		Subject: fmt.Sprintf("%s Password Reset Request", c.Brand),
		Body: fmt.Sprintf("Hi %s,\nWe received a request to reset your password for your %s account. "+
			"To proceed, please click the link below:\n%s\nFor security reasons, this link will expire in %d minutes. "+
			"If you did not request a password reset, please ignore this email.\nThe %s Team",
			name, c.Brand, c.ResetLink(token), int(ttl.Minutes()), c.Brand),
	}
}

func (c Composer) PasswordChanged(name, email string) Message {
	return Message{
		Kind:    KindPasswordChanged,
		To:      []string{email},
		Subject: fmt.Sprintf("Your %s password was changed", c.Brand),
		Body: fmt.Sprintf("Hi %s,\nThe password for your %s account has just been changed. "+
			"If this was not you, contact us immediately at [%s].\nThe %s Team",
			name, c.Brand, c.Support, c.Brand),
	}
}

func (c Composer) RoleChanged(name, email, role string) Message {
	return Message{
		Kind:    KindRoleChanged,
		To:      []string{email},
		Subject: fmt.Sprintf("Your %s account role has changed", c.Brand),
		Body:    fmt.Sprintf("Hi %s,\nYour account role is now %s.\nThe %s Team", name, role, c.Brand),
	}
}

func (c Composer) AccountDeleted(name, email string) Message {
	return Message{
		Kind:    KindAccountDeleted,
		To:      []string{email},
		Subject: fmt.Sprintf("Your %s account has been removed", c.Brand),
		Body: fmt.Sprintf("Hi %s,\nYour %s administrator account has been deleted. "+
			"If you believe this is a mistake, reach out at [%s].\nThe %s Team",
			name, c.Brand, c.Support, c.Brand),
	}
}
