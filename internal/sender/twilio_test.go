package sender

import (
	"context"
	"testing"

	"remindbot/internal/config"

	"github.com/stretchr/testify/assert"
)

type stubComposer struct{ line string }

func (s stubComposer) ReminderMessage(ctx context.Context, taskText, dueDisplay string) string {
	return s.line
}

func TestReminderBody_UsesComposerCopy(t *testing.T) {
	tw := NewTwilio(config.Twilio{}, stubComposer{line: "Time to call mom - don't keep her waiting!"})

	body := tw.reminderBody(context.Background(), "call mom", "today at 5pm", 7)
	assert.Equal(t, "Time to call mom - don't keep her waiting!\n\nReply 'done 7' when completed!", body)
}

func TestReminderBody_PlainTemplateWithoutComposer(t *testing.T) {
	tw := NewTwilio(config.Twilio{}, nil)

	body := tw.reminderBody(context.Background(), "call mom", "", 7)
	assert.Equal(t, "Reminder: call mom\n\nReply 'done 7' when completed!", body)
}

func TestFormatDestination(t *testing.T) {
	assert.Equal(t, "+15551234567", formatDestination("+15551234567", false))
	assert.Equal(t, "whatsapp:+15551234567", formatDestination("+15551234567", true))
	assert.Equal(t, "whatsapp:+15551234567", formatDestination("whatsapp:+15551234567", true))
	assert.Equal(t, "", formatDestination("", true))
}

func TestIsConfigured(t *testing.T) {
	tw := NewTwilio(config.Twilio{}, nil)
	assert.False(t, tw.IsConfigured())

	tw = NewTwilio(config.Twilio{
		AccountSID:  "AC123",
		AuthToken:   "secret",
		PhoneNumber: "+15550000000",
		UserNumber:  "+15551111111",
	}, nil)
	assert.True(t, tw.IsConfigured())
}
