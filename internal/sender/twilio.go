// Package sender delivers proactive messages to the user through Twilio,
// over SMS or WhatsApp.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"remindbot/internal/config"
)

const apiBase = "https://api.twilio.com/2010-04-01"

// Composer writes the first line of an outbound reminder. Without one
// the sender falls back to a plain template.
type Composer interface {
	ReminderMessage(ctx context.Context, taskText, dueDisplay string) string
}

type Twilio struct {
	accountSID  string
	authToken   string
	from        string
	to          string
	useWhatsApp bool
	composer    Composer
	client      *http.Client
}

func NewTwilio(cfg config.Twilio, composer Composer) *Twilio {
	from := cfg.PhoneNumber
	if cfg.UseWhatsApp {
		from = cfg.WhatsAppFrom
	}

	t := &Twilio{
		accountSID:  cfg.AccountSID,
		authToken:   cfg.AuthToken,
		from:        formatDestination(from, cfg.UseWhatsApp),
		to:          formatDestination(cfg.UserNumber, cfg.UseWhatsApp),
		useWhatsApp: cfg.UseWhatsApp,
		composer:    composer,
		client:      &http.Client{Timeout: 15 * time.Second},
	}

	if t.IsConfigured() {
		channel := "SMS"
		if t.useWhatsApp {
			channel = "WhatsApp"
		}
		log.Printf("Message sender initialized - Channel: %s", channel)
	} else {
		log.Println("Message sender: missing Twilio credentials")
	}
	return t
}

// formatDestination prefixes numbers for the WhatsApp channel.
func formatDestination(number string, useWhatsApp bool) string {
	if number == "" {
		return number
	}
	if useWhatsApp && !strings.HasPrefix(number, "whatsapp:") {
		return "whatsapp:" + number
	}
	return number
}

func (t *Twilio) IsConfigured() bool {
	return t.accountSID != "" && t.authToken != "" && t.from != "" && t.to != ""
}

// SendReminder sends the reminder for one task.
func (t *Twilio) SendReminder(ctx context.Context, text string, dueDisplay string, taskID int64) error {
	log.Printf("Sending reminder for task %d (due %s)", taskID, dueDisplay)
	return t.send(ctx, t.reminderBody(ctx, text, dueDisplay, taskID))
}

// reminderBody pairs the reminder copy with the completion hint.
func (t *Twilio) reminderBody(ctx context.Context, text, dueDisplay string, taskID int64) string {
	line := "Reminder: " + text
	if t.composer != nil {
		line = t.composer.ReminderMessage(ctx, text, dueDisplay)
	}
	return fmt.Sprintf("%s\n\nReply 'done %d' when completed!", line, taskID)
}

// SendTest verifies the messaging configuration end to end.
func (t *Twilio) SendTest(ctx context.Context) error {
	return t.send(ctx, "Test message from your assistant - configuration is working!")
}

func (t *Twilio) send(ctx context.Context, body string) error {
	if !t.IsConfigured() {
		return fmt.Errorf("message sender not configured")
	}

	form := url.Values{}
	form.Set("To", t.to)
	form.Set("From", t.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, string(data))
	}

	var created struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.SID != "" {
		log.Printf("Message sent successfully - SID: %s", created.SID)
	}
	return nil
}

// Status reports configuration state for the debug endpoint.
func (t *Twilio) Status() map[string]interface{} {
	return map[string]interface{}{
		"configured":      t.IsConfigured(),
		"use_whatsapp":    t.useWhatsApp,
		"user_number":     t.to,
		"from_number":     t.from,
		"has_account_sid": t.accountSID != "",
		"has_auth_token":  t.authToken != "",
	}
}
