package http

import (
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"odyssey-quiz-service/internal/domain"
)

func readLeaderboard(conn *websocket.Conn, t *testing.T) []domain.LeaderboardEntry {
	t.Helper()
	var msg leaderboardMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload
}

func TestWebSocketLeaderboardStream(t *testing.T) {
	h := newHarness(t)

	u := "ws" + h.server.URL[len("http"):] + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot is empty, nobody has scored yet.
	initial := readLeaderboard(conn, t)
	if len(initial) != 0 {
		t.Fatalf("expected empty initial leaderboard, got %+v", initial)
	}

	h.feed.Publish([]domain.LeaderboardEntry{
		{Rank: 1, UserID: 2, Username: "bob", TotalPoints: 30},
	})

	update := readLeaderboard(conn, t)
	if len(update) != 1 || update[0].Username != "bob" || update[0].TotalPoints != 30 {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestWebSocketReceivesSubmissionUpdates(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "bob@example.com")
	quiz, questions := h.seedTodayQuiz(t)

	u := "ws" + h.server.URL[len("http"):] + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readLeaderboard(conn, t) // initial snapshot

	resp := h.do(t, "POST", "/api/quiz/"+strconv.FormatInt(quiz.ID, 10)+"/submit", token, domain.SubmitRequest{
		QuizID:  quiz.ID,
		Answers: map[int64]int{questions[1].ID: 1},
	})
	resp.Body.Close()

	update := readLeaderboard(conn, t)
	if len(update) != 1 || update[0].UserID != 2 || update[0].TotalPoints != 20 {
		t.Fatalf("expected bob with 20 points, got %+v", update)
	}
}
