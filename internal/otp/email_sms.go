package otp

import (
	"context"
	"fmt"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"
)

// EmailSMSConfig configures the direct email+SMS delivery backend.
type EmailSMSConfig struct {
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	From     string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string
}

// EmailSMSDispatcher sends codes over SMTP for email identifiers and over
// the Twilio messages API for phone identifiers. Identifiers containing "@"
// are treated as email addresses.
type EmailSMSDispatcher struct {
	cfg    EmailSMSConfig
	client *http.Client
	ttl    time.Duration
}

func NewEmailSMSDispatcher(cfg EmailSMSConfig, ttl time.Duration) *EmailSMSDispatcher {
	return &EmailSMSDispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    ttl,
	}
}

func (d *EmailSMSDispatcher) Send(ctx context.Context, identifier, code string) error {
	if strings.Contains(identifier, "@") {
		return d.sendEmail(identifier, code)
	}
	return d.sendSMS(ctx, identifier, code)
}

func (d *EmailSMSDispatcher) sendEmail(email, code string) error {
	if d.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp not configured")
	}

	body := fmt.Sprintf(
		"Your OTP for FoodDash login is: %s. This code expires in %d minutes.",
		code, int(d.ttl.Minutes()),
	)
	msg := strings.Join([]string{
		"From: " + d.cfg.From,
		"To: " + email,
		"Subject: Your FoodDash OTP",
		"",
		body,
	}, "\r\n")

	addr := d.cfg.SMTPHost + ":" + d.cfg.SMTPPort
	auth := smtp.PlainAuth("", d.cfg.SMTPUser, d.cfg.SMTPPass, d.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, d.cfg.From, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (d *EmailSMSDispatcher) sendSMS(ctx context.Context, phone, code string) error {
	if d.cfg.TwilioAccountSID == "" || d.cfg.TwilioAuthToken == "" {
		return fmt.Errorf("twilio not configured")
	}

	endpoint := fmt.Sprintf(
		"https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json",
		d.cfg.TwilioAccountSID,
	)
	form := url.Values{
		"To":   {phone},
		"From": {d.cfg.TwilioFromPhone},
		"Body": {"Your FoodDash OTP is: " + code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(d.cfg.TwilioAccountSID, d.cfg.TwilioAuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send sms: twilio returned %s", resp.Status)
	}
	return nil
}
