package domain

import "time"

// QuestionType tags the Question union.
type QuestionType string

const (
	QuestionTypeMCQ        QuestionType = "mcq"
	QuestionTypeSubjective QuestionType = "subjective"
)

// DefaultSampleAnswer is substituted when the model omits a sample answer
// for a subjective question.
const DefaultSampleAnswer = "No sample answer provided"

// Option is a single multiple-choice option.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a tagged union over mcq and subjective questions. For mcq,
// Options is non-empty and CorrectAnswer references an option id. For
// subjective, SampleAnswer is always set (defaulted if the model omitted
// it) and Options/CorrectAnswer are empty.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	SampleAnswer  string       `json:"sampleAnswer,omitempty"`
	Topic         string       `json:"topic,omitempty"`
}

// Validate validates the question invariants.
func (q *Question) Validate() error {
	if q.ID == "" {
		return NewInvalidInputError("question id is required")
	}
	if q.Question == "" {
		return NewInvalidInputError("question text is required")
	}
	switch q.Type {
	case QuestionTypeMCQ:
		if len(q.Options) == 0 {
			return NewInvalidInputError("mcq question must have at least one option")
		}
		found := false
		for _, opt := range q.Options {
			if opt.ID == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return NewInvalidInputError("correctAnswer must reference an existing option id")
		}
	case QuestionTypeSubjective:
		if q.SampleAnswer == "" {
			return NewInvalidInputError("subjective question must have a sample answer")
		}
	default:
		return NewInvalidInputError("unknown question type: " + string(q.Type))
	}
	return nil
}

// ScoreEntry records the outcome of one question within an attempted quiz.
type ScoreEntry struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Correct    bool   `json:"correct"`
	UserAnswer string `json:"userAnswer,omitempty"`
	Topic      string `json:"topic,omitempty"`
}

// Score is the aggregate result of an attempted quiz.
type Score struct {
	Obtained   int     `json:"obtained"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Quiz is one generated quiz over a stored analysis result. Created with
// Attempted=false; mutates exactly once to Attempted=true with scores
// filled, and is immutable thereafter.
type Quiz struct {
	ID             string       `json:"id"`
	QuizNumber     int          `json:"quizNumber"`
	SourceID       string       `json:"sourceId"`
	Questions      []Question   `json:"quizQuestions"`
	RawText        string       `json:"rawText,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
	Attempted      bool         `json:"attempted"`
	QuestionScores []ScoreEntry `json:"questionScores,omitempty"`
	Score          *Score       `json:"score,omitempty"`
	IsAdaptive     bool         `json:"isAdaptive"`
}

// Validate validates the quiz.
func (q *Quiz) Validate() error {
	if q.ID == "" {
		return NewInvalidInputError("quiz id is required")
	}
	if q.SourceID == "" {
		return NewInvalidInputError("quiz source id is required")
	}
	if len(q.Questions) == 0 {
		return NewInvalidInputError("quiz must contain at least one question")
	}
	for i := range q.Questions {
		if err := q.Questions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
