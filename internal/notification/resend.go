package notification

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier delivers email through the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
}

// NewResendNotifier builds a Resend-backed notifier.
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{client: resend.NewClient(apiKey), from: from}
}

// Send delivers message as a plain-text email.
func (n *ResendNotifier) Send(ctx context.Context, message Message) error {
	_, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      message.To,
		Subject: message.Subject,
		Text:    message.Body,
	})
	if err != nil {
		return fmt.Errorf("resend %s: %w", message.Kind, err)
	}
	return nil
}
