package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mindflow/mindflow/internal/models"
)

func testMessages() []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: "你是一位心理咨询师"},
		{Role: models.RoleUser, Content: "我最近很焦虑"},
	}
}

func TestCompleteSuccess(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "我理解你的感受"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})

	reply, err := client.Complete(context.Background(), testMessages())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "我理解你的感受" {
		t.Errorf("reply = %q", reply)
	}

	if captured.Model != "deepseek-chat" {
		t.Errorf("model = %q, want default", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Errorf("roles = %s, %s", captured.Messages[0].Role, captured.Messages[1].Role)
	}
	if captured.Temperature != 0.7 || captured.MaxTokens != 1000 {
		t.Errorf("temperature/max_tokens = %v/%d, want defaults", captured.Temperature, captured.MaxTokens)
	}
}

func TestCompleteNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Complete(context.Background(), testMessages())
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("error = %v, want *BackendError", err)
	}
	if backendErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", backendErr.StatusCode)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Complete(context.Background(), testMessages())
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("error = %v, want *BackendError", err)
	}
}

func TestCompleteMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Complete(context.Background(), testMessages())
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("error = %v, want *BackendError", err)
	}
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Complete(ctx, testMessages()); err == nil {
		t.Fatal("cancelled context did not fail the request")
	}
}

func TestNewClientFillsDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.config.BaseURL != "https://api.deepseek.com" {
		t.Errorf("base URL = %q", client.config.BaseURL)
	}
	if client.config.Model != "deepseek-chat" {
		t.Errorf("model = %q", client.config.Model)
	}
	if client.config.RequestsPerMinute != 60 {
		t.Errorf("requests per minute = %d", client.config.RequestsPerMinute)
	}
}
