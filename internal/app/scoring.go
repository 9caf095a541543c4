package app

import (
	"strings"

	"quizhost-service/internal/domain"
)

// ScoreAttempt computes the score for an answer map against a question set.
// It is the single scoring implementation: submission and result display
// both go through it, so point values and normalization cannot drift
// between call sites.
//
// Unanswered questions contribute zero points and are never an error.
// MCQ answers are compared exactly (options are a controlled vocabulary);
// fill-in-the-blank answers are trimmed and lowercased on both sides.
// TotalPossible counts every question regardless of what was answered.
func ScoreAttempt(questions []domain.Question, answers map[string]string) domain.Score {
	var score domain.Score
	for _, q := range questions {
		points := q.PointValue()
		score.TotalPossible += points

		submitted, ok := answers[q.ID]
		if !ok {
			continue
		}
		if answerCorrect(q, submitted) {
			score.Points += points
		}
	}
	return score
}

func answerCorrect(q domain.Question, submitted string) bool {
	switch q.Type {
	case domain.QuestionMCQ:
		return submitted == q.Answer
	case domain.QuestionFillBlank:
		return normalize(submitted) == normalize(q.Answer)
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
