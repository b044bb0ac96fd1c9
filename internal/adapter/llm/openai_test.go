package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOpenAIChatMissingKey(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_NO_KEY", "")

	if _, err := NewOpenAIChat("PDFCHAT_TEST_NO_KEY", "gpt-4o-mini", "", 0.3, 1000, 0); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestGenerateWithSystem(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected system+user pair, got %d messages", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected roles %s/%s", req.Messages[0].Role, req.Messages[1].Role)
		}
		if req.Temperature != 0.3 {
			t.Errorf("expected temperature 0.3, got %g", req.Temperature)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("expected max_tokens 1000, got %d", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: "grounded answer"}}},
		})
	}))
	defer srv.Close()

	c, err := NewOpenAIChat("PDFCHAT_TEST_KEY", "gpt-4o-mini", srv.URL, 0.3, 1000, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	answer, err := c.GenerateWithSystem("answer from context", "Context:\n...\n\nQuestion: q\n\nAnswer:")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "grounded answer" {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestGenerateWithSystemServerError(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewOpenAIChat("PDFCHAT_TEST_KEY", "gpt-4o-mini", srv.URL, 0.3, 1000, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.GenerateWithSystem("sys", "user"); err == nil {
		t.Fatal("expected error for server failure")
	}
}

func TestGenerateWithSystemNoChoices(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer srv.Close()

	c, err := NewOpenAIChat("PDFCHAT_TEST_KEY", "gpt-4o-mini", srv.URL, 0.3, 1000, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.GenerateWithSystem("sys", "user"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
