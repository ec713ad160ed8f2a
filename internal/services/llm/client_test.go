package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "key", BaseURL: server.URL, Model: "test"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("backoff = %v, want [1s 2s]", slept)
	}
}

func TestCompleteJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "key", BaseURL: server.URL, Model: "test"},
		WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestDecodeJSONHandlesCodeFences(t *testing.T) {
	var target struct {
		Value int `json:"value"`
	}
	payload := "```json\n{\"value\": 7}\n```"
	if err := DecodeJSON(payload, &target); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if target.Value != 7 {
		t.Fatalf("value = %d", target.Value)
	}

	if err := DecodeJSON("", &target); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if err := DecodeJSON("not json at all", &target); err == nil {
		t.Fatal("expected error for garbage payload")
	}
	if !strings.Contains(DecodeJSON("not json at all", &target).Error(), "snippet") {
		t.Fatal("expected snippet in decode error")
	}
}
