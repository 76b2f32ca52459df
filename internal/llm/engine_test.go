package llm

import (
	"context"
	"testing"

	"remindbot/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestDetectCommand(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"forget this", CommandForget},
		{"  Forget This  ", CommandForget},
		{"show tasks", CommandShowTasks},
		{"SHOW TASKS", CommandShowTasks},
		{"done 12", CommandCompleteTask},
		{"delete task 12", CommandDeleteTask},
		{"hello there", CommandNone},
		{"done", CommandNone},
		{"remind me to call mom tomorrow", CommandNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectCommand(tc.in), tc.in)
	}
}

func TestUnconfiguredEngineDegrades(t *testing.T) {
	e := New(config.OpenAI{})
	ctx := context.Background()

	assert.Equal(t, unavailableText, e.Ask(ctx, "hello", ""))
	assert.Nil(t, e.ParseTaskIntent(ctx, "remind me to call mom"))
	assert.Equal(t, "Reminder: call mom", e.ReminderMessage(ctx, "call mom", "today"))
}

func TestNewDefaultsModel(t *testing.T) {
	e := New(config.OpenAI{})
	assert.Equal(t, defaultModel, e.model)

	e = New(config.OpenAI{Model: "gpt-4"})
	assert.Equal(t, "gpt-4", e.model)
}
