package adaptive

import (
	"testing"
	"time"

	"snapstudy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicKey(t *testing.T) {
	cases := map[string]string{
		"What is the derivative of x^2?":            "derivative_x^2",
		"Which of the following describes osmosis?": "describes_osmosis",
		"Explain Newton's second law in detail":     "explain_newton's_second",
		"":                    "general",
		"The a an is":         "general",
		"Photosynthesis?":     "photosynthesis",
		"IS THE fast Fourier": "fast_fourier",
	}
	for question, want := range cases {
		assert.Equal(t, want, TopicKey(question), "question %q", question)
	}
}

func attemptedQuiz(sourceID string, ts time.Time, scores []domain.ScoreEntry) *domain.Quiz {
	return &domain.Quiz{
		ID:             "quiz-" + ts.Format("150405"),
		SourceID:       sourceID,
		Attempted:      true,
		Timestamp:      ts,
		QuestionScores: scores,
	}
}

func TestAnalyzeNoAttemptedQuizzes(t *testing.T) {
	quizzes := []*domain.Quiz{
		{ID: "q1", SourceID: "src", Attempted: false},
	}
	assert.Nil(t, Analyze(quizzes, "src"))
	assert.Nil(t, Analyze(nil, "src"))
}

func TestAnalyzeIgnoresOtherSources(t *testing.T) {
	quizzes := []*domain.Quiz{
		attemptedQuiz("other", time.Now(), []domain.ScoreEntry{
			{QuestionID: "q1", Question: "about kinematics", Correct: true},
		}),
	}
	assert.Nil(t, Analyze(quizzes, "src"))
}

func TestAnalyzeWeakTopicDifficultyFloors(t *testing.T) {
	// One of three correct puts the topic well under the weak threshold;
	// difficulty drops but never below the floor.
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	quizzes := []*domain.Quiz{
		attemptedQuiz("src", ts, []domain.ScoreEntry{
			{QuestionID: "q1", Question: "derivative rules", Topic: "calculus", Correct: true},
			{QuestionID: "q2", Question: "chain rule usage", Topic: "calculus", Correct: false},
			{QuestionID: "q3", Question: "product rule usage", Topic: "calculus", Correct: false},
		}),
	}

	profile := Analyze(quizzes, "src")
	require.NotNil(t, profile)

	perf := profile.QuestionPerformance["calculus"]
	require.NotNil(t, perf)
	assert.Equal(t, 3, perf.Attempts)
	assert.Equal(t, 1, perf.Correct)
	assert.Equal(t, domain.MinDifficulty, perf.Difficulty)

	assert.Equal(t, []string{"calculus"}, profile.WeakTopics())
	assert.Empty(t, profile.MasteredTopics())
	assert.Len(t, profile.IncorrectQuestions, 2)
	assert.Equal(t, ts, profile.LastQuizTimestamp)
}

func TestAnalyzeMasteredTopicDifficultyRises(t *testing.T) {
	quizzes := []*domain.Quiz{
		attemptedQuiz("src", time.Now(), []domain.ScoreEntry{
			{QuestionID: "q1", Topic: "vectors", Correct: true},
			{QuestionID: "q2", Topic: "vectors", Correct: true},
			{QuestionID: "q3", Topic: "vectors", Correct: true},
		}),
	}

	profile := Analyze(quizzes, "src")
	require.NotNil(t, profile)

	perf := profile.QuestionPerformance["vectors"]
	assert.Equal(t, domain.MinDifficulty+1, perf.Difficulty)
	assert.Equal(t, []string{"vectors"}, profile.MasteredTopics())
}

func TestAnalyzeTwoAttemptsAllCorrectNotMasteredEnoughToRaise(t *testing.T) {
	// Perfect score on too few attempts keeps difficulty where it is.
	quizzes := []*domain.Quiz{
		attemptedQuiz("src", time.Now(), []domain.ScoreEntry{
			{QuestionID: "q1", Topic: "optics", Correct: true},
			{QuestionID: "q2", Topic: "optics", Correct: true},
		}),
	}

	profile := Analyze(quizzes, "src")
	require.NotNil(t, profile)
	assert.Equal(t, domain.MinDifficulty, profile.QuestionPerformance["optics"].Difficulty)
	assert.Empty(t, profile.MasteredTopics())
}

func TestAnalyzeTopicKeyFallback(t *testing.T) {
	quizzes := []*domain.Quiz{
		attemptedQuiz("src", time.Now(), []domain.ScoreEntry{
			{QuestionID: "q1", Question: "What is the quadratic formula used for?", Correct: false},
		}),
	}

	profile := Analyze(quizzes, "src")
	require.NotNil(t, profile)
	_, ok := profile.QuestionPerformance["quadratic_formula_used"]
	assert.True(t, ok)
}

func TestAnalyzeAggregatesAcrossQuizzes(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	quizzes := []*domain.Quiz{
		attemptedQuiz("src", older, []domain.ScoreEntry{
			{QuestionID: "q1", Topic: "waves", Correct: true},
		}),
		attemptedQuiz("src", newer, []domain.ScoreEntry{
			{QuestionID: "q2", Topic: "waves", Correct: true},
			{QuestionID: "q3", Topic: "waves", Correct: true},
		}),
	}

	profile := Analyze(quizzes, "src")
	require.NotNil(t, profile)
	assert.Equal(t, 3, profile.QuestionPerformance["waves"].Attempts)
	assert.Equal(t, newer, profile.LastQuizTimestamp)
}

func TestDirectives(t *testing.T) {
	assert.Empty(t, Directives(nil))

	profile := &domain.PerformanceProfile{
		QuestionPerformance: map[string]*domain.TopicPerformance{
			"chain_rule": {Attempts: 4, Correct: 1, Difficulty: 1},
			"vectors":    {Attempts: 3, Correct: 3, Difficulty: 2},
		},
		IncorrectQuestions: []domain.IncorrectQuestion{
			{QuestionID: "q2", Question: "Apply the chain rule to sin(x^2)", Topic: "chain_rule"},
		},
	}

	out := Directives(profile)
	assert.Contains(t, out, "chain rule (1 of 4 correct)")
	assert.Contains(t, out, "mastered these topics")
	assert.Contains(t, out, "vectors")
	assert.Contains(t, out, "Apply the chain rule to sin(x^2)")
}

func TestDirectivesCapsIncorrectQuestions(t *testing.T) {
	profile := &domain.PerformanceProfile{
		QuestionPerformance: map[string]*domain.TopicPerformance{},
	}
	for i := 0; i < 8; i++ {
		profile.IncorrectQuestions = append(profile.IncorrectQuestions, domain.IncorrectQuestion{
			QuestionID: string(rune('a' + i)),
			Question:   "missed question " + string(rune('a'+i)),
		})
	}

	out := Directives(profile)
	assert.Contains(t, out, "missed question e")
	assert.NotContains(t, out, "missed question f")
}
