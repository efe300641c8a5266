package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/infra/memory"
	"odyssey-quiz-service/internal/logger"
)

type fixedGenerator struct {
	raw string
	err error
}

func (g *fixedGenerator) GenerateQuiz(ctx context.Context, date string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.raw, nil
}

type harness struct {
	server *httptest.Server
	store  *memory.Store
	feed   *app.Feed
	gen    *fixedGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewDirectory([]domain.User{
		{ID: 1, Email: "alice@example.com", Username: "alice", Admin: true},
		{ID: 2, Email: "bob@example.com", Username: "bob"},
	})
	log := logger.NewNop()
	gen := &fixedGenerator{err: errors.New("model unavailable")}
	ledger := app.NewLedger(store, users, log)
	feed := app.NewFeed()

	deps := Deps{
		Store:     store,
		Scoring:   app.NewScoring(store, users, ledger, feed, log),
		Lifecycle: app.NewLifecycle(store, gen, nil, log),
		Ledger:    ledger,
		Feed:      feed,
		Sessions:  memory.NewSessionStore(),
		Users:     users,
		Log:       log,
	}
	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(server.Close)
	return &harness{server: server, store: store, feed: feed, gen: gen}
}

func (h *harness) login(t *testing.T, email string) string {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/auth/session", "", map[string]string{"email": email})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login for %s failed with status %d", email, resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return body.Token
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	return resp
}

func (h *harness) seedTodayQuiz(t *testing.T) (domain.Quiz, []domain.Question) {
	t.Helper()
	today := domain.FormatDate(time.Now())
	quiz := &domain.Quiz{Date: today, Title: "Daily Quiz - " + today}
	questions := []domain.Question{
		{Text: "Which planet has the most moons?", Options: []string{"Mars", "Saturn", "Venus", "Mercury"}, CorrectIndex: 1, Points: 10},
		{Text: "What powers the Sun?", Options: []string{"Fission", "Fusion", "Combustion", "Accretion"}, CorrectIndex: 1, Points: 20},
	}
	if err := h.store.CreateQuizWithQuestions(context.Background(), quiz, questions); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return *quiz, questions
}

func TestSessionEndpoint(t *testing.T) {
	h := newHarness(t)

	token := h.login(t, "alice@example.com")
	if token == "" {
		t.Fatal("expected a session token")
	}

	resp := h.do(t, http.MethodPost, "/api/auth/session", "", map[string]string{"email": "nobody@example.com"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown user should get 404, got %d", resp.StatusCode)
	}

	resp = h.do(t, http.MethodPost, "/api/auth/session", "", map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing email should get 400, got %d", resp.StatusCode)
	}
}

func TestQuizEndpointsRequireAuth(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/quiz/today", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token should get 401, got %d", resp.StatusCode)
	}

	resp = h.do(t, http.MethodGet, "/api/quiz/today", "bogus-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token should get 401, got %d", resp.StatusCode)
	}
}

func TestTodayNoQuiz(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "alice@example.com")

	resp := h.do(t, http.MethodGet, "/api/quiz/today", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestTodayHidesCorrectAnswers(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "alice@example.com")
	h.seedTodayQuiz(t)

	resp := h.do(t, http.MethodGet, "/api/quiz/today", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	var view domain.QuizView
	if err := json.NewDecoder(io.TeeReader(resp.Body, &buf)).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Questions) != 2 || view.Completed {
		t.Fatalf("unexpected view: %+v", view)
	}
	if strings.Contains(buf.String(), "correctIndex") {
		t.Fatal("correct answers leaked in the quiz payload")
	}
	if !strings.Contains(buf.String(), "questionText") {
		t.Fatal("question text field missing from payload")
	}
}

func TestSubmitFlow(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "bob@example.com")
	quiz, questions := h.seedTodayQuiz(t)

	path := fmt.Sprintf("/api/quiz/%d/submit", quiz.ID)
	req := domain.SubmitRequest{
		QuizID: quiz.ID,
		Answers: map[int64]int{
			questions[0].ID: 1,
			questions[1].ID: 0,
		},
	}

	resp := h.do(t, http.MethodPost, path, token, req)
	var result domain.SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if result.Score == nil || *result.Score != 10 {
		t.Fatalf("expected score 10, got %+v", result)
	}

	// Second submission conflicts.
	resp = h.do(t, http.MethodPost, path, token, req)
	var dup domain.SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&dup); err != nil {
		t.Fatalf("decode duplicate result: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if dup.Message != app.MessageAlreadySubmitted || dup.Score != nil {
		t.Fatalf("unexpected duplicate result: %+v", dup)
	}

	// The completed flag and previous score show up on the daily quiz.
	resp = h.do(t, http.MethodGet, "/api/quiz/today", token, nil)
	var view domain.QuizView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	resp.Body.Close()
	if !view.Completed || view.PreviousScore == nil || *view.PreviousScore != 10 {
		t.Fatalf("expected completed view with score 10, got %+v", view)
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "bob@example.com")
	quiz, _ := h.seedTodayQuiz(t)

	// Path and body disagree.
	resp := h.do(t, http.MethodPost, fmt.Sprintf("/api/quiz/%d/submit", quiz.ID), token,
		domain.SubmitRequest{QuizID: quiz.ID + 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("mismatched ids should get 400, got %d", resp.StatusCode)
	}

	// Unknown quiz.
	resp = h.do(t, http.MethodPost, "/api/quiz/999/submit", token,
		domain.SubmitRequest{QuizID: 999})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown quiz should get 404, got %d", resp.StatusCode)
	}
}

func TestRegenerateRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	adminToken := h.login(t, "alice@example.com")
	userToken := h.login(t, "bob@example.com")
	h.seedTodayQuiz(t)

	resp := h.do(t, http.MethodPost, "/api/quiz/admin/regenerate", userToken, nil)
	var denied map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&denied)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin should get 403, got %d", resp.StatusCode)
	}
	if denied["message"] != "Admin access required" {
		t.Fatalf("unexpected denial message %q", denied["message"])
	}

	// Generation still failing: the admin sees the error.
	resp = h.do(t, http.MethodPost, "/api/quiz/admin/regenerate", adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("failed regeneration should get 502, got %d", resp.StatusCode)
	}

	// With a working generator it succeeds.
	h.gen.err = nil
	h.gen.raw = `{"quiz":{"questions":[{"question":"Q","options":["A","B"],"correct_index":0,"points":10}]}}`
	resp = h.do(t, http.MethodPost, "/api/quiz/admin/regenerate", adminToken, nil)
	var ok map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&ok)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ok["message"] != "Quiz regenerated successfully" {
		t.Fatalf("unexpected success message %q", ok["message"])
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.CreditPoints(ctx, 1, 50)
	h.store.CreditPoints(ctx, 2, 30)

	resp := h.do(t, http.MethodGet, "/api/leaderboard", "", nil)
	var entries []domain.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	resp.Body.Close()
	if len(entries) != 2 || entries[0].Username != "alice" || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}

	resp = h.do(t, http.MethodGet, "/api/leaderboard/tiers", "", nil)
	var tiers []domain.Tier
	if err := json.NewDecoder(resp.Body).Decode(&tiers); err != nil {
		t.Fatalf("decode tiers: %v", err)
	}
	resp.Body.Close()
	if len(tiers) != 4 || tiers[0].Name != "Radiant" {
		t.Fatalf("unexpected tiers: %+v", tiers)
	}

	resp = h.do(t, http.MethodGet, "/api/leaderboard/history", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("history without date should get 400, got %d", resp.StatusCode)
	}

	resp = h.do(t, http.MethodGet, "/api/leaderboard/history?date=2025-06-14", "", nil)
	var snaps []domain.LeaderboardSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snaps); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	resp.Body.Close()
	if len(snaps) != 0 {
		t.Fatalf("expected empty history, got %+v", snaps)
	}
}
