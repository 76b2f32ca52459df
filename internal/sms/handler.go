// Package sms is the inbound message pipeline: command routing, task
// creation from parsed intent, and conversational fallback.
package sms

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/dates"
	"remindbot/internal/llm"
	"remindbot/internal/task"
)

// IntentEngine is the slice of the LLM engine the pipeline needs.
type IntentEngine interface {
	Ask(ctx context.Context, prompt, memoryContext string) string
	ParseTaskIntent(ctx context.Context, userMessage string) *llm.Intent
}

// Memory is the slice of the recall client the pipeline needs.
type Memory interface {
	ContextFor(ctx context.Context, prompt string) string
	AddConversation(ctx context.Context, userMessage, assistantResponse string) bool
	ForgetLast(ctx context.Context) bool
}

type Handler struct {
	store    task.Store
	resolver *dates.Resolver
	engine   IntentEngine
	memory   Memory
}

func NewHandler(store task.Store, resolver *dates.Resolver, engine IntentEngine, memory Memory) *Handler {
	return &Handler{store: store, resolver: resolver, engine: engine, memory: memory}
}

var (
	doneRe   = regexp.MustCompile(`done\s+(\d+)`)
	deleteRe = regexp.MustCompile(`delete\s+task\s+(\d+)`)
)

// Process handles one inbound message and returns the reply text.
func (h *Handler) Process(ctx context.Context, userMessage, from string) string {
	log.Printf("Processing message from %s: %s", from, userMessage)

	switch llm.DetectCommand(userMessage) {
	case llm.CommandForget:
		if h.memory.ForgetLast(ctx) {
			return "I've forgotten our last conversation. What can I help you with?"
		}
		return "I couldn't forget the last message. Please try again."
	case llm.CommandShowTasks:
		return h.taskSummary(ctx)
	case llm.CommandCompleteTask:
		return h.completeTask(ctx, userMessage)
	case llm.CommandDeleteTask:
		return h.deleteTask(ctx, userMessage)
	}

	memoryContext := h.memory.ContextFor(ctx, userMessage)

	if intent := h.engine.ParseTaskIntent(ctx, userMessage); intent != nil && intent.IsTask {
		return h.createTask(ctx, intent, userMessage)
	}

	reply := h.engine.Ask(ctx, userMessage, memoryContext)
	h.memory.AddConversation(ctx, userMessage, reply)
	return reply
}

// createTask resolves the due time from the user's original message, not
// from the model's guess, to keep timing free of LLM bias.
func (h *Handler) createTask(ctx context.Context, intent *llm.Intent, userMessage string) string {
	now := time.Now().UTC()
	var dueAt *time.Time
	var dueDisplay string

	if due, ok := h.resolver.Resolve(userMessage, now); ok {
		dueAt = &due
		dueDisplay = due.In(h.resolver.Location()).Format("Jan 02 at 03:04 PM MST")
		log.Printf("Resolved due time for %q: %s", userMessage, due.Format(time.RFC3339))
	} else {
		log.Printf("No due time found in %q; creating task without reminder", userMessage)
	}

	id, err := h.store.Create(ctx, intent.TaskText, dueAt, dueDisplay, task.ParsePriority(intent.Priority))
	if err != nil {
		log.Printf("Error creating task: %v", err)
		return "I couldn't save that task. Please try again."
	}

	var reply string
	if dueAt != nil {
		reply = fmt.Sprintf("Got it! I'll remind you to %s on %s. (Task #%d)", intent.TaskText, dueDisplay, id)
	} else {
		reply = fmt.Sprintf("Got it! I've added '%s' to your tasks. (Task #%d)", intent.TaskText, id)
	}
	h.memory.AddConversation(ctx, userMessage, reply)
	return reply
}

// taskSummary renders the pending list for "show tasks".
func (h *Handler) taskSummary(ctx context.Context) string {
	tasks, err := h.store.ListPending(ctx)
	if err != nil {
		log.Printf("Error getting pending tasks: %v", err)
		return "I couldn't look up your tasks right now. Please try again."
	}
	if len(tasks) == 0 {
		return "You have no pending tasks!"
	}

	plural := ""
	if len(tasks) != 1 {
		plural = "s"
	}
	lines := []string{fmt.Sprintf("You have %d pending task%s:", len(tasks), plural)}

	show := tasks
	if len(show) > 5 {
		show = show[:5]
	}
	for _, t := range show {
		line := fmt.Sprintf("[%s] %d. %s", t.Priority, t.ID, t.Text)
		if t.DueAt != nil {
			line += fmt.Sprintf(" (due: %s)", t.DueAt.In(h.resolver.Location()).Format("01/02 15:04"))
		}
		lines = append(lines, line)
	}
	if len(tasks) > 5 {
		lines = append(lines, fmt.Sprintf("... and %d more", len(tasks)-5))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) completeTask(ctx context.Context, userMessage string) string {
	m := doneRe.FindStringSubmatch(strings.ToLower(userMessage))
	if m == nil {
		return "Please specify a task ID: 'done 123'"
	}
	id, _ := strconv.ParseInt(m[1], 10, 64)

	done, err := h.store.Complete(ctx, id)
	if err != nil {
		log.Printf("Error completing task %d: %v", id, err)
		return "I encountered an error processing that command. Please try again."
	}
	if !done {
		return fmt.Sprintf("Could not find or complete task %d.", id)
	}
	return fmt.Sprintf("Task %d marked as completed!", id)
}

func (h *Handler) deleteTask(ctx context.Context, userMessage string) string {
	m := deleteRe.FindStringSubmatch(strings.ToLower(userMessage))
	if m == nil {
		return "Please specify a task ID: 'delete task 123'"
	}
	id, _ := strconv.ParseInt(m[1], 10, 64)

	deleted, err := h.store.Delete(ctx, id)
	if err != nil {
		log.Printf("Error deleting task %d: %v", id, err)
		return "I encountered an error processing that command. Please try again."
	}
	if !deleted {
		return fmt.Sprintf("Could not find or delete task %d.", id)
	}
	return fmt.Sprintf("Task %d deleted!", id)
}
