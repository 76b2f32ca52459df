// Package llm wraps the OpenAI chat completions API for replies, task
// intent parsing, and reminder copy.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"remindbot/internal/config"
)

const (
	defaultModel    = "gpt-3.5-turbo"
	completionsURL  = "https://api.openai.com/v1/chat/completions"
	unavailableText = "I'm sorry, but I'm not properly configured to respond right now. Please check my API keys."
)

type Engine struct {
	apiKey string
	model  string
	client *http.Client
}

func New(cfg config.OpenAI) *Engine {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if cfg.APIKey == "" {
		log.Println("OPENAI_API_KEY not found. LLM features will be limited.")
	}
	return &Engine{
		apiKey: cfg.APIKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (e *Engine) complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model: e.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionsURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(data))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

const assistantSystemPrompt = `You are a helpful personal AI assistant that communicates via SMS.
You should be concise, friendly, and helpful. Keep responses short (under 160 characters when possible)
since this is SMS communication. You help with reminders, tasks, and general questions.`

// Ask sends a prompt (optionally prefixed with memory context) and
// returns the reply. Failures degrade to canned apologies; the user
// never sees an internal error.
func (e *Engine) Ask(ctx context.Context, prompt, memoryContext string) string {
	if e.apiKey == "" {
		return unavailableText
	}

	full := prompt
	if memoryContext != "" {
		full = memoryContext + prompt
	}

	reply, err := e.complete(ctx, assistantSystemPrompt, full, 150, 0.7)
	if err != nil {
		log.Printf("LLM error: %v", err)
		return "I'm having trouble connecting to my AI service right now. Please try again later."
	}
	log.Printf("LLM response generated: %.50s...", reply)
	return reply
}

const intentSystemPrompt = `You are a task parsing assistant. Analyze the user's message and determine if they want to create a task or reminder.

If they do, respond with a JSON object containing:
- "is_task": true
- "task_text": the task description
- "due_date": the due date/time (if specified, in ISO format, otherwise null)
- "priority": "high", "medium", or "low" (default: "medium")

If no task is detected, respond with:
- "is_task": false

Examples:
"remind me to call mom tomorrow" -> {"is_task": true, "task_text": "call mom", "due_date": "2024-01-15T09:00:00", "priority": "medium"}
"hello there" -> {"is_task": false}`

// Intent is the task-creation contract supplied to the store; the due
// date resolution is done elsewhere from the original message, not from
// the model's DueDate guess.
type Intent struct {
	IsTask   bool   `json:"is_task"`
	TaskText string `json:"task_text"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
}

// ParseTaskIntent returns nil when no task was detected or the engine is
// unavailable.
func (e *Engine) ParseTaskIntent(ctx context.Context, userMessage string) *Intent {
	if e.apiKey == "" {
		return nil
	}

	raw, err := e.complete(ctx, intentSystemPrompt, userMessage, 200, 0.3)
	if err != nil {
		log.Printf("Error parsing task intent: %v", err)
		return nil
	}

	var intent Intent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		log.Printf("Could not parse task intent JSON: %s", raw)
		return nil
	}
	if !intent.IsTask {
		return nil
	}
	log.Printf("Task detected: %s", intent.TaskText)
	return &intent
}

// ReminderMessage generates friendly reminder copy, falling back to a
// plain template when the model is unavailable.
func (e *Engine) ReminderMessage(ctx context.Context, taskText, dueDisplay string) string {
	fallback := "Reminder: " + taskText
	if e.apiKey == "" {
		return fallback
	}

	system := `Generate a friendly, concise reminder message for SMS.
Keep it under 160 characters. Be encouraging and helpful.`
	prompt := fmt.Sprintf("Generate a reminder message for: %s (due: %s)", taskText, dueDisplay)

	reply, err := e.complete(ctx, system, prompt, 100, 0.8)
	if err != nil {
		log.Printf("Error generating reminder message: %v", err)
		return fallback
	}
	return reply
}

type Command string

const (
	CommandNone         Command = ""
	CommandForget       Command = "forget"
	CommandShowTasks    Command = "show_tasks"
	CommandCompleteTask Command = "complete_task"
	CommandDeleteTask   Command = "delete_task"
)

// DetectCommand recognizes the fixed command vocabulary without touching
// the model.
func DetectCommand(userMessage string) Command {
	m := strings.ToLower(strings.TrimSpace(userMessage))
	switch {
	case m == "forget this":
		return CommandForget
	case m == "show tasks":
		return CommandShowTasks
	case strings.HasPrefix(m, "done "):
		return CommandCompleteTask
	case strings.HasPrefix(m, "delete task "):
		return CommandDeleteTask
	}
	return CommandNone
}
