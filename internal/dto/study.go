package dto

import (
	"time"

	"snapstudy/internal/domain"
)

// AnalysisResponse represents one analyzed upload in the API response
// @Description Analysis result with the structured notes tree when available
type AnalysisResponse struct {
	ID                 string           `json:"id"`
	FileName           string           `json:"fileName"`
	Timestamp          time.Time        `json:"timestamp"`
	Markdown           string           `json:"markdown,omitempty"`
	StructuredData     domain.NotesTree `json:"structuredData,omitempty"`
	Description        string           `json:"description,omitempty"`
	OriginalExtraction string           `json:"originalExtraction,omitempty"`
	Pages              int              `json:"pages"`
	Degraded           bool             `json:"degraded"`
}

// AnalysisListResponse wraps the stored analysis results
type AnalysisListResponse struct {
	Analyses []AnalysisResponse `json:"analyses"`
}

// GenerateQuizRequest selects generation parameters
// @Description Request body for quiz generation
type GenerateQuizRequest struct {
	QuestionCount int `json:"questionCount,omitempty"`
	MCQCount      int `json:"mcqCount,omitempty"`
	SubjCount     int `json:"subjectiveCount,omitempty"`
}

// QuizResponse represents a generated quiz in the API response
type QuizResponse struct {
	ID         string              `json:"id"`
	QuizNumber int                 `json:"quizNumber"`
	SourceID   string              `json:"sourceId"`
	Questions  []domain.Question   `json:"quizQuestions"`
	Timestamp  time.Time           `json:"timestamp"`
	Attempted  bool                `json:"attempted"`
	IsAdaptive bool                `json:"isAdaptive"`
	Scores     []domain.ScoreEntry `json:"questionScores,omitempty"`
	Score      *domain.Score       `json:"score,omitempty"`
}

// QuizListResponse wraps the quizzes generated from one source
type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
}

// SubmitQuizRequest carries the user's answers keyed by question id.
// Subjective questions are self-assessed by the learner.
type SubmitQuizRequest struct {
	Answers    map[string]string `json:"answers"`
	SelfScores map[string]bool   `json:"selfScores,omitempty"`
}

// QuizResultResponse is the graded outcome of a submitted quiz
type QuizResultResponse struct {
	QuizID         string              `json:"quizId"`
	Score          domain.Score        `json:"score"`
	QuestionScores []domain.ScoreEntry `json:"questionScores"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
