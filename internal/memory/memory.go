// Package memory is the long-term recall client (Supermemory API). Every
// call degrades gracefully: a missing or disabled key turns the client
// into a no-op so the message pipeline never depends on it.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"remindbot/internal/config"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.supermemory.com/v1"

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(cfg config.Memory) *Client {
	key := cfg.APIKey
	if key == "" || strings.EqualFold(key, "disabled") {
		log.Println("SUPERMEMORY_API_KEY not found or disabled. Memory features will be limited.")
		key = ""
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		apiKey:  key,
		baseURL: base,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) (int, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// Add stores one memory entry. The client assigns the entry id so a
// retried request stays idempotent on the server side.
func (c *Client) Add(ctx context.Context, content string, metadata map[string]string) bool {
	if !c.Enabled() {
		log.Println("Cannot add memory: API key not configured")
		return false
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	payload := map[string]interface{}{
		"id":        uuid.NewString(),
		"content":   content,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"metadata":  metadata,
	}
	status, err := c.do(ctx, http.MethodPost, "/memories", payload, nil)
	if err != nil {
		log.Printf("Error adding memory: %v", err)
		return false
	}
	if status != http.StatusCreated {
		log.Printf("Failed to add memory: status %d", status)
		return false
	}
	log.Printf("Successfully added memory: %.50s...", content)
	return true
}

type Entry struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Search returns up to limit entries relevant to the query.
func (c *Client) Search(ctx context.Context, query string, limit int) []Entry {
	if !c.Enabled() {
		return nil
	}

	payload := map[string]interface{}{"query": query, "limit": limit}
	var out struct {
		Memories []Entry `json:"memories"`
	}
	status, err := c.do(ctx, http.MethodPost, "/memories/search", payload, &out)
	if err != nil {
		log.Printf("Error querying memories: %v", err)
		return nil
	}
	if status != http.StatusOK {
		log.Printf("Failed to query memories: status %d", status)
		return nil
	}
	log.Printf("Found %d relevant memories for query: %.50s...", len(out.Memories), query)
	return out.Memories
}

// ForgetLast deletes the most recent entry.
func (c *Client) ForgetLast(ctx context.Context) bool {
	if !c.Enabled() {
		log.Println("Cannot forget memory: API key not configured")
		return false
	}

	var recent Entry
	status, err := c.do(ctx, http.MethodGet, "/memories/recent", nil, &recent)
	if err != nil || status != http.StatusOK || recent.ID == "" {
		log.Printf("No recent memory found to delete (status %d, err %v)", status, err)
		return false
	}

	status, err = c.do(ctx, http.MethodDelete, "/memories/"+recent.ID, nil, nil)
	if err != nil || status != http.StatusNoContent {
		log.Printf("Failed to delete memory: status %d, err %v", status, err)
		return false
	}
	log.Println("Successfully deleted most recent memory")
	return true
}

// AddConversation stores one user/assistant exchange.
func (c *Client) AddConversation(ctx context.Context, userMessage, assistantResponse string) bool {
	entry := fmt.Sprintf("User: %s\nAssistant: %s", userMessage, assistantResponse)
	return c.Add(ctx, entry, map[string]string{
		"type":               "conversation",
		"user_message":       userMessage,
		"assistant_response": assistantResponse,
	})
}

// ContextFor formats the most relevant memories as a prompt prefix; an
// empty string when nothing relevant exists.
func (c *Client) ContextFor(ctx context.Context, prompt string) string {
	memories := c.Search(ctx, prompt, 3)
	if len(memories) == 0 {
		return ""
	}

	var parts []string
	for _, m := range memories {
		if m.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
				parts = append(parts, fmt.Sprintf("[%s] %s", ts.Format("2006-01-02 15:04"), m.Content))
				continue
			}
		}
		parts = append(parts, m.Content)
	}
	return "Relevant context:\n" + strings.Join(parts, "\n") + "\n\n"
}
