package domain

import (
	"sort"
	"time"
)

// Difficulty bounds for per-topic adaptive difficulty.
const (
	MinDifficulty = 1
	MaxDifficulty = 3
)

// TopicPerformance accumulates attempt history for one derived topic key.
type TopicPerformance struct {
	Attempts    int      `json:"attempts"`
	Correct     int      `json:"correct"`
	Difficulty  int      `json:"difficulty"`
	QuestionIDs []string `json:"questionIds"`
}

// CorrectRate returns the fraction of attempts answered correctly.
func (t *TopicPerformance) CorrectRate() float64 {
	if t.Attempts == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Attempts)
}

// IncorrectQuestion is a question the learner got wrong, kept so the next
// generation can re-test the same ground.
type IncorrectQuestion struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Topic      string `json:"topic,omitempty"`
}

// PerformanceProfile is derived from a source's attempted quizzes on each
// adaptive generation request. It is recomputed from scratch every time
// and never persisted or cached.
type PerformanceProfile struct {
	QuestionPerformance map[string]*TopicPerformance `json:"questionPerformance"`
	IncorrectQuestions  []IncorrectQuestion          `json:"incorrectQuestions"`
	LastQuizTimestamp   time.Time                    `json:"lastQuizTimestamp"`
}

// WeakTopics returns topic keys whose correct-rate is below 0.6, the set
// the next quiz should re-test.
func (p *PerformanceProfile) WeakTopics() []string {
	var weak []string
	for key, perf := range p.QuestionPerformance {
		if perf.CorrectRate() < 0.6 {
			weak = append(weak, key)
		}
	}
	sort.Strings(weak)
	return weak
}

// MasteredTopics returns topic keys with correct-rate above 0.8 across at
// least three attempts, the set the next quiz should make harder.
func (p *PerformanceProfile) MasteredTopics() []string {
	var mastered []string
	for key, perf := range p.QuestionPerformance {
		if perf.Attempts >= 3 && perf.CorrectRate() > 0.8 {
			mastered = append(mastered, key)
		}
	}
	sort.Strings(mastered)
	return mastered
}
