package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"odyssey-quiz-service/internal/logger"
)

func geminiResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	out, _ := json.Marshal(payload)
	return string(out)
}

const validQuiz = `{"quiz":{"questions":[{"question":"Q1","options":["A","B","C","D"],"correct_index":0,"points":10}]}}`

func TestGenerateQuizStripsCodeFences(t *testing.T) {
	var gotKey string
	var gotBody request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(geminiResponse("```json\n" + validQuiz + "\n```")))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second, logger.NewNop())
	text, err := client.GenerateQuiz(context.Background(), "2025-06-15")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if text != validQuiz {
		t.Fatalf("fences not stripped: %q", text)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key not sent as query parameter, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected request shape: %+v", gotBody)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "2025-06-15") || !strings.Contains(prompt, "exactly 5 questions") {
		t.Fatalf("prompt missing date or question count: %q", prompt)
	}
}

func TestGenerateQuizRequiresAPIKey(t *testing.T) {
	client := NewClient("", "http://unused", time.Second, logger.NewNop())
	if _, err := client.GenerateQuiz(context.Background(), "2025-06-15"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateQuizRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second, logger.NewNop())
	_, err := client.GenerateQuiz(context.Background(), "2025-06-15")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestGenerateQuizRejectsEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second, logger.NewNop())
	if _, err := client.GenerateQuiz(context.Background(), "2025-06-15"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerateQuizRejectsMalformedQuiz(t *testing.T) {
	for name, text := range map[string]string{
		"not json":          "the model apologizes",
		"missing questions": `{"quiz":{}}`,
		"empty text":        "``````",
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(geminiResponse(text)))
			}))
			defer server.Close()

			client := NewClient("test-key", server.URL, time.Second, logger.NewNop())
			if _, err := client.GenerateQuiz(context.Background(), "2025-06-15"); err == nil {
				t.Fatalf("expected rejection for %s", name)
			}
		})
	}
}
