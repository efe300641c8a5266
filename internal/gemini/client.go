package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"odyssey-quiz-service/internal/logger"
)

const defaultTimeout = 30 * time.Second

// ErrNotConfigured is returned when no API key is set; callers treat it as a
// generation failure like any other.
var ErrNotConfigured = errors.New("gemini api key not configured")

// Client talks to the Gemini generateContent endpoint and turns its answer
// into a validated quiz JSON document. It persists nothing.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(apiKey, apiURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("service", "gemini"),
	}
}

type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// quizDocument mirrors the shape the prompt demands; only the presence of
// quiz.questions is validated here, field-level defaults are the caller's
// concern.
type quizDocument struct {
	Quiz struct {
		Questions []json.RawMessage `json:"questions"`
	} `json:"quiz"`
}

// GenerateQuiz asks for a 5-question daily quiz for the given date and
// returns the cleaned, validated JSON text. Any transport, auth, or shape
// problem is a generation failure.
func (c *Client) GenerateQuiz(ctx context.Context, date string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	prompt := fmt.Sprintf(
		"Generate a challenging and engaging 'Daily Space Quiz' for %s. "+
			"Topics: Astronomy, Space Missions, Astrophysics, Planets, Black Holes, Cosmology. "+
			"Create exactly 5 questions. "+
			"Output ONLY valid JSON in this EXACT format (no markdown, no code blocks): "+
			`{"quiz":{"questions":[{"question":"...","options":["A","B","C","D"],"correct_index":0,"points":10}]}}`,
		date)

	body, err := json.Marshal(request{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}

	// Gemini takes the API key as a query parameter, not a bearer token.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("gemini decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini response has no candidates")
	}

	text := stripCodeFences(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errors.New("gemini response text is empty")
	}

	var doc quizDocument
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return "", fmt.Errorf("gemini quiz is not valid JSON: %w", err)
	}
	if doc.Quiz.Questions == nil {
		return "", errors.New("gemini quiz is missing quiz.questions")
	}

	c.log.Info("generated quiz document", "date", date, "questions", len(doc.Quiz.Questions))
	return text, nil
}

// stripCodeFences removes markdown code-block wrappers the model sometimes
// adds despite instructions.
func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
