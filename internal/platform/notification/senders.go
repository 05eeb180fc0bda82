package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ResendSender sends transactional email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender constructs a ResendSender with the clinic's from address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) SendEmail(ctx context.Context, to, subject, text string) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// TwilioWhatsAppSender sends WhatsApp messages through Twilio's messaging API.
// Recipients are given as plain phone numbers; the sender applies the
// "whatsapp:" channel prefix before delivery.
type TwilioWhatsAppSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioWhatsAppSender constructs a TwilioWhatsAppSender. from is the
// Twilio WhatsApp number (with or without the channel prefix).
func NewTwilioWhatsAppSender(accountSID, authToken, from string) *TwilioWhatsAppSender {
	return &TwilioWhatsAppSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: withChannelPrefix(from),
	}
}

func (s *TwilioWhatsAppSender) SendWhatsApp(_ context.Context, to, message string) (string, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(withChannelPrefix(to))
	params.SetBody(message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

func withChannelPrefix(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
