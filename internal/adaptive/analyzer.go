// Package adaptive mines a source's attempted quizzes into a performance
// profile that biases the next generation prompt toward weak areas and
// raises difficulty on mastered ones. The profile only steers prompt
// phrasing, never stored facts, so the topic-key heuristic stays
// deliberately simple.
package adaptive

import (
	"strings"

	"snapstudy/internal/domain"
	"snapstudy/internal/logger"

	"go.uber.org/zap"
)

// Correct-rate thresholds for difficulty adjustment.
const (
	masteredRate  = 0.8
	weakRate      = 0.4
	minAttemptsUp = 3
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "what": true, "which": true, "who": true, "whom": true,
	"whose": true, "when": true, "where": true, "why": true, "how": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"and": true, "or": true, "not": true, "do": true, "does": true,
	"did": true, "can": true, "could": true, "would": true, "should": true,
	"following": true, "true": true, "false": true, "this": true,
	"that": true, "these": true, "those": true, "it": true, "its": true,
	"be": true, "by": true, "with": true, "from": true, "as": true,
}

var punctTrim = ".,;:?!()[]{}\"'`"

// TopicKey derives a coarse topic key from question text: the first three
// non-stop-words, lowercased and underscore-joined. NLP-free on purpose.
func TopicKey(question string) string {
	var words []string
	for _, field := range strings.Fields(strings.ToLower(question)) {
		word := strings.Trim(field, punctTrim)
		if word == "" || stopWords[word] {
			continue
		}
		words = append(words, word)
		if len(words) == 3 {
			break
		}
	}
	if len(words) == 0 {
		return "general"
	}
	return strings.Join(words, "_")
}

// Analyze recomputes the performance profile for one source from scratch.
// Returns nil when the source has no attempted quizzes; the caller then
// generates with the non-adaptive prompt unchanged.
func Analyze(quizzes []*domain.Quiz, sourceID string) *domain.PerformanceProfile {
	l := logger.Get()

	profile := &domain.PerformanceProfile{
		QuestionPerformance: map[string]*domain.TopicPerformance{},
		IncorrectQuestions:  []domain.IncorrectQuestion{},
	}

	attempted := 0
	for _, quiz := range quizzes {
		if quiz.SourceID != sourceID || !quiz.Attempted {
			continue
		}
		attempted++
		if quiz.Timestamp.After(profile.LastQuizTimestamp) {
			profile.LastQuizTimestamp = quiz.Timestamp
		}

		for _, entry := range quiz.QuestionScores {
			key := entry.Topic
			if key == "" {
				key = TopicKey(entry.Question)
			}
			perf, ok := profile.QuestionPerformance[key]
			if !ok {
				perf = &domain.TopicPerformance{Difficulty: domain.MinDifficulty}
				profile.QuestionPerformance[key] = perf
			}
			perf.Attempts++
			perf.QuestionIDs = append(perf.QuestionIDs, entry.QuestionID)
			if entry.Correct {
				perf.Correct++
			} else {
				profile.IncorrectQuestions = append(profile.IncorrectQuestions, domain.IncorrectQuestion{
					QuestionID: entry.QuestionID,
					Question:   entry.Question,
					Topic:      key,
				})
			}
		}
	}

	if attempted == 0 {
		l.Info("adaptive: no attempted quizzes for source, skipping profile",
			zap.String("source_id", sourceID))
		return nil
	}

	for _, perf := range profile.QuestionPerformance {
		rate := perf.CorrectRate()
		switch {
		case rate > masteredRate && perf.Attempts >= minAttemptsUp:
			perf.Difficulty++
			if perf.Difficulty > domain.MaxDifficulty {
				perf.Difficulty = domain.MaxDifficulty
			}
		case rate < weakRate:
			perf.Difficulty--
			if perf.Difficulty < domain.MinDifficulty {
				perf.Difficulty = domain.MinDifficulty
			}
		}
	}

	l.Info("adaptive: computed performance profile",
		zap.String("source_id", sourceID),
		zap.Int("attempted_quizzes", attempted),
		zap.Int("topics", len(profile.QuestionPerformance)),
		zap.Int("incorrect_questions", len(profile.IncorrectQuestions)))
	return profile
}
