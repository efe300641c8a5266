package app

import (
	"fmt"

	"odyssey-quiz-service/internal/domain"
)

// FallbackPrefix marks placeholder questions so the startup check can detect
// a degraded quiz and retry generation.
const FallbackPrefix = "Fallback Question"

const fallbackQuestionCount = 5

// FallbackQuestions returns the deterministic placeholder question set used
// when generation fails.
func FallbackQuestions() []domain.Question {
	questions := make([]domain.Question, 0, fallbackQuestionCount)
	for i := 1; i <= fallbackQuestionCount; i++ {
		questions = append(questions, domain.Question{
			Text:         fmt.Sprintf("%s %d", FallbackPrefix, i),
			Options:      []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectIndex: 0,
			Points:       10,
		})
	}
	return questions
}
